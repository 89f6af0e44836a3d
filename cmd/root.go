package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/internal/config"
	"github.com/axellelanca/shortlink/internal/logging"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// RootCmd is the base command for the CLI application
// All other commands (run-server, create, create-user, stats, migrate) are added as subcommands
var RootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "A URL shortener with accounts, click counting and QR codes",
	Long: `shortlink serves short links for registered users: it creates codes or custom
slugs, redirects and counts clicks, renders a QR code per link and can monitor
destination health.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the Cobra application
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// Subcommands register themselves from their own init() to avoid import cycles.
func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig runs before every command. An invalid configuration is fatal.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
}

// Logger builds the process logger from the loaded configuration and installs it as
// the slog default.
func Logger() *slog.Logger {
	log := logging.New(os.Stdout, Cfg.Log.Level, Cfg.Log.Format)
	slog.SetDefault(log)
	return log
}
