package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/app"
	"storefront/models"
	"storefront/service"
	"storefront/utils"
)

var (
	loginCreds      credentialFlags
	registerCreds   credentialFlags
	registerConfirm string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials against the storefront API",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(app.NewClient(cfg), log.Named("auth"))
		session, note, err := auth.Login(cmd.Context(), models.Credentials{
			Username: loginCreds.username,
			Password: loginCreds.password,
		})
		printNotice(cmd.ErrOrStderr(), note.Message)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (balance %s)\n", session.Username, utils.FormatAmount(session.Balance))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a storefront account",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(app.NewClient(cfg), log.Named("auth"))
		note, err := auth.Register(cmd.Context(), service.RegisterInput{
			Username:        registerCreds.username,
			Password:        registerCreds.password,
			ConfirmPassword: registerConfirm,
		})
		printNotice(cmd.ErrOrStderr(), note.Message)
		return err
	},
}

func init() {
	loginCreds.register(loginCmd)
	registerCreds.register(registerCmd)
	registerCmd.Flags().StringVar(&registerConfirm, "confirm", "", "Password confirmation")
}
