package cmd

import (
	"context"

	"storefront/app"
	"storefront/models"
	"storefront/service"
)

// newStorefront builds a storefront for the command line, logged in when
// credentials are given
func newStorefront(ctx context.Context, creds credentialFlags) (*service.Storefront, *models.Notification, error) {
	api := app.NewClient(cfg)
	obs := service.Observers{Logger: log.Named("storefront")}
	sf := service.NewStorefront(api, service.StorefrontConfig{Debounce: cfg.SearchDebounce()}, obs)

	if creds.username == "" {
		return sf, nil, nil
	}

	auth := service.NewAuthService(api, log.Named("auth"))
	session, note, err := auth.Login(ctx, models.Credentials{Username: creds.username, Password: creds.password})
	if err != nil {
		sf.Close()
		return nil, &note, err
	}
	sf.SetSession(session)
	return sf, &note, nil
}
