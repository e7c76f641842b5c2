package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"storefront/app/controller"
	"storefront/app/router"
	"storefront/client"
	"storefront/config"
	"storefront/db"
	"storefront/metrics"
	"storefront/repository"
	"storefront/service"
)

// App is the wired backend-for-frontend server
type App struct {
	Handler  http.Handler
	Registry *service.VisitorRegistry
	Metrics  *metrics.Metrics
	Journal  repository.ActivityRepositoryInterface
}

// NewJournal returns the Postgres journal when a database is configured and
// the in-memory one otherwise
func NewJournal(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (repository.ActivityRepositoryInterface, error) {
	if !cfg.Enabled() {
		log.Info("no journal database configured, keeping activity in memory")
		return repository.NewMemoryActivityRepository(0), nil
	}

	if err := db.InitDB(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureSchema(ctx, db.DB); err != nil {
		db.CloseDB()
		return nil, err
	}
	log.Info("activity journal connected")
	return repository.NewActivityRepository(db.DB), nil
}

// NewClient builds the storefront API client from cfg
func NewClient(cfg *config.Config) *client.Client {
	return client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.APITimeout()),
		client.WithRateLimit(cfg.API.RateLimit),
		client.WithUserAgent(cfg.API.UserAgent),
	)
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	journal, err := NewJournal(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	api := NewClient(cfg)
	obs := service.Observers{Journal: journal, Metrics: m, Logger: log.Named("storefront")}

	storefrontCfg := service.StorefrontConfig{Debounce: cfg.SearchDebounce()}
	registry := service.NewVisitorRegistry(func() *service.Storefront {
		return service.NewStorefront(api, storefrontCfg, obs)
	}, cfg.VisitorTTL(), log.Named("visitors"))

	thumbs := service.NewThumbnailService(api, cfg.Export.ThumbnailCacheDir, log.Named("thumbnails"))
	exporter := service.NewSummaryExporter(thumbs, cfg.Export.ChromePath, log.Named("export"))
	auth := service.NewAuthService(api, log.Named("auth"))

	ttl := cfg.VisitorTTL()
	controllers := &router.Controllers{
		Storefront: controller.NewStorefrontController(registry, ttl, thumbs, log),
		Cart:       controller.NewCartController(registry, ttl, log),
		Auth:       controller.NewAuthController(registry, ttl, auth, log),
		Export:     controller.NewExportController(registry, ttl, exporter, log),
	}

	return &App{
		Handler:  router.SetupRoutes(controllers, m),
		Registry: registry,
		Metrics:  m,
		Journal:  journal,
	}, nil
}

// Close releases every visitor and the journal database
func (a *App) Close() error {
	a.Registry.Close()
	return db.CloseDB()
}
