package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"capsule/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and backfill unit flags",
	Long: `Migrate opens the configured backend, which creates any missing tables,
then reports on the unit toRent backfill.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := app.BackfillUnits(ctxOf(cmd), store, logger)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired check-in tokens and sessions once",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := app.NewSweeper(store, store, cfg.SweepInterval, logger).Sweep(ctxOf(cmd))
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <username> <password>",
	Short: "Create the first admin account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		authSvc := app.NewAuthService(store, store, store.Settings())
		u, err := authSvc.CreateInitialUser(ctxOf(cmd), args[0], args[1])
		if errors.Is(err, app.ErrUsersExist) {
			return fmt.Errorf("create-admin: %w", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("created admin %s (%s)\n", u.Username, u.ID)
		return nil
	},
}
