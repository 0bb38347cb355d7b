package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grantsuite/accessgate/cmd/profiles"
	"github.com/grantsuite/accessgate/internal/config"
)

var (
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "accessgate",
	Short: "Access gate for the grant-review suite",
	Long: `Access gate decides, for every request to the grant-review suite, whether the caller
may proceed: kill switch, CSRF origin check, session resolution, revocation and
per-application entitlements.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
		}
		if err := config.BindFlags(cmd.Flags()); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("environment", "", "Hosting environment: development, test, preview or production (env: ACCESSGATE_ENVIRONMENT)")
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: ACCESSGATE_DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: ACCESSGATE_SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: ACCESSGATE_DEBUG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env: ACCESSGATE_LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("enforce-auth", false, "Enforce authentication when credentials are complete (env: ACCESSGATE_AUTH_ENFORCE)")

	rootCmd.AddCommand(profiles.ProfilesCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
