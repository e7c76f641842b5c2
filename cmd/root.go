// Package cmd implements the storefront command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/logger"
)

var (
	// Global flags
	configPath string
	envFile    string
	logLevel   string
	apiURL     string

	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront client for the QKart REST API",
	Long: `storefront talks to a QKart-compatible REST API.

It serves a per-visitor storefront over HTTP (serve), runs an interactive
terminal storefront (browse), exports order summaries (export) and manages
accounts (login, register).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			loaded.API.BaseURL = apiURL
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		log, err = logger.New(logger.Options{
			Service: "storefront",
			Env:     cfg.Env,
			Level:   cfg.Logging.Level,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("STOREFRONT_CONFIG"), "YAML config file (or set STOREFRONT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", ".env file loaded outside production")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (or set LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Storefront API root, e.g. http://localhost:8082/api/v1 (or set STOREFRONT_API_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// credentialFlags are shared by the commands that log in
type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", os.Getenv("STOREFRONT_USERNAME"), "Username (or set STOREFRONT_USERNAME)")
	cmd.Flags().StringVarP(&f.password, "password", "p", os.Getenv("STOREFRONT_PASSWORD"), "Password (or set STOREFRONT_PASSWORD)")
}

func printNotice(w io.Writer, message string) {
	fmt.Fprintln(w, message)
}
