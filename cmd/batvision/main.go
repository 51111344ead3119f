// Package main is the entry point for the batvision CLI.
//
//	@title			BatVision API
//	@version		1.0
//	@description	Identify Batman actors and lookalikes in images
//	@BasePath		/api/v1
package main

import (
	"fmt"
	"os"

	"github.com/helixml/batvision/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "batvision",
		Short: "BatVision image identification server",
		Long: `BatVision identifies Batman actors and lookalikes in uploaded images and
names the matching movie, its villain and box office, and an iconic quote.

Running batvision without a subcommand starts the server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	flags.register(cmd)

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables
// and rejects it when a required value is missing.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}
