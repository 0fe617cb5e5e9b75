package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/espalier-ai/espalier"
	"github.com/espalier-ai/espalier/internal/logging"
	"github.com/espalier-ai/espalier/internal/metrics"
	"github.com/espalier-ai/espalier/pkg/adapters/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tutoring HTTP server",
	Long:  `Starts the JSON API with session persistence, step event streaming over SSE and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log.SlogLevel(), cfg.Log.JSON)

		sessions, cache, cleanup, err := buildSessionManager(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		m := metrics.New()
		registry := prometheus.NewRegistry()
		if err := m.Register(registry); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}

		streams := httpapi.NewStreamManager(logger)
		tutor := buildTutor(cfg, logger,
			espalier.WithCache(cache, cfg.Cache.TTL),
			espalier.WithCacheMetrics(m.CacheHit, m.CacheMiss),
			espalier.WithNotifier(streams),
			espalier.WithLifecycleHooks(m.Hooks()),
		)

		server := httpapi.NewServer(tutor, sessions, streams,
			httpapi.WithLogger(logger),
			httpapi.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server started", "addr", srv.Addr, "redis", cfg.Redis.Enabled(), "provider", cfg.Provider.Enabled())
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete, forcing close", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("close server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
