package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapthttp "capsule/internal/adapter/http"
	"capsule/internal/app"
	"capsule/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the expiry sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(ctxOf(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		authSvc := app.NewAuthService(store, store, store.Settings())
		reports := app.NewReportService(store, store)
		reg := metrics.NewRegistry(store, logger)

		api := adapthttp.New(store, authSvc, reports, metrics.Handler(reg), logger).
			WithDesk(app.NewCheckinService(store.Facade, logger), app.NewExpenseService(store))
		if cfg.SSO.Enabled() {
			sso, err := adapthttp.NewSSOConfig(ctx, cfg.SSO.Issuer, cfg.SSO.ClientID, cfg.SSO.ClientSecret, cfg.SSO.RedirectURL)
			if err != nil {
				logger.Warn("sso disabled", zap.Error(err))
			} else {
				api.WithSSO(sso)
			}
		}

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		sweeper := app.NewSweeper(store, store, cfg.SweepInterval, logger)
		go sweeper.Run(ctx)

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("backend", store.Backend()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
