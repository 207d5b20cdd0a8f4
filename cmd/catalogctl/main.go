// Command catalogctl resolves, prices and inspects global catalog entries
// directly against the configured database and price sources.
package main

import (
	"fmt"
	"os"

	"collectibles-vault/internal/app"
	"collectibles-vault/internal/config"
	"collectibles-vault/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	outputFlag string
	verbose    bool
)

// openApp loads configuration and connects to storage for one command run.
func openApp() (*app.App, error) {
	if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg := config.Load()
	mode := "production"
	if verbose {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(cfg, log)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the global collectibles catalog",
		Long: `catalogctl operates on the global catalog without going through the HTTP API.

It can resolve items to catalog entries, estimate an item's value, refresh
daily price snapshots and print an entry's price history.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newHistoryCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
