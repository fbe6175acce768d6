package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"mcp-search-go/internal/app"
	"mcp-search-go/internal/config"
	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/logging"
	"mcp-search-go/internal/server"
	"mcp-search-go/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Gateway failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Msg("Starting tool dispatch gateway")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	systemMetrics := telemetry.NewSystemMetricsCollector(metrics, logger, cfg.App.MetricsInterval)
	go systemMetrics.Start(ctx)
	defer systemMetrics.Stop()

	toolset, err := app.NewTools(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer toolset.Close()

	gateway := dispatch.NewGateway(toolset.Registry, logger)

	handler, err := server.New(server.Config{Name: cfg.App.Name}, server.Deps{
		Registry:   toolset.Registry,
		Dispatcher: telemetry.NewInstrumentedDispatcher(gateway, metrics),
		Metrics:    metrics,
		Gatherer:   reg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Gateway.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
