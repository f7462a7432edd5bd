// Package main provides the capsule CLI: the ops server plus maintenance
// commands against the configured storage backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"capsule/internal/config"
	"capsule/internal/logging"
	"capsule/internal/storage"
)

var (
	// configFile is set by the --config flag.
	configFile string

	cfg    *config.Config
	logger *zap.Logger
	store  *storage.Handle
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "capsule",
	Short: "Capsule lodging storage and operations tool",
	Long: `Capsule stores units, guests, problems, check-in tokens and settings
for a capsule hotel or dormitory. It runs the ops server and provides
maintenance commands against the configured backend.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (YAML)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(occupancyCmd)
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(settingsCmd)
}

// setup loads config, builds the logger and opens storage.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, "capsule")
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	store = storage.Open(cmd.Context(), cfg.DatabaseURL, logger)
	return nil
}

func teardown() error {
	if logger != nil {
		_ = logger.Sync()
	}
	if store == nil {
		return nil
	}
	return store.Close()
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
