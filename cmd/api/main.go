package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/app"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/config"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/storage"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/telemetry"
	transporthttp "github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/transport/http"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracing, err := telemetry.SetupTracing(startupCtx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", slog.Any("error", err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	if cfg.StoreDriver == config.DriverPostgres && cfg.DatabaseURL != "" {
		if err := migrations.Apply(cfg.DatabaseURL); err != nil {
			logger.Warn("apply migrations", slog.Any("error", err))
		}
	}

	store, closeStore := storage.Open(context.Background(), cfg, logger)
	defer closeStore()
	_, disconnected := store.(storage.Disconnected)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry, cfg.Capacity.Zones...)

	clk := clock.NewSystem()
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithObserver(metrics),
		app.WithHistoryLimits(cfg.HistoryDefaultLimit, cfg.HistoryMaxLimit),
	}
	services := transporthttp.Services{
		Recorder: app.NewRecorderService(store, store, clk, opts...),
		Stats:    app.NewStatsService(store, store, cfg.Capacity.Total, opts...),
		Admin:    app.NewAdminService(store, clk, opts...),
		Live: live.NewSubscriber(store, cfg.Capacity.Total, cfg.Capacity.Zones, clk,
			live.WithLogger(logger),
			live.WithTracker(metrics),
		),
	}

	handler := transporthttp.NewRouter(services, transporthttp.RouterOptions{
		Logger:         logger,
		Requests:       metrics,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSOrigins:    cfg.CORSOriginList(),
		EventRateLimit: cfg.EventRateLimit,
		TrustProxy:     cfg.TrustProxy,
		StoreConnected: !disconnected,
		TotalCapacity:  cfg.Capacity.Total,
		Zones:          cfg.Capacity.Zones,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("api listening", slog.String("addr", server.Addr), slog.String("store", cfg.StoreDriver))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")
	return nil
}
