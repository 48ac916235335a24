// Command server runs the cotiza HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	statsCacheTTL      = 5 * time.Minute
	slowQueryThreshold = 200 * time.Millisecond
	shutdownTimeout    = 30 * time.Second
	bucketTimeout      = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cotiza:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := startTelemetry(ctx, telemetry.NewConfig(cfg.Telemetry, version), log)
	if err != nil {
		return err
	}
	if tel.logs.IsEnabled() {
		// tee every entry to the OTLP log exporter
		log, err = logger.New(logCfg, logger.WithTee(tel.logs.ZapCore(logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Cotiza backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version))

	var cleanup cleanupStack
	defer cleanup.run(log)

	deps, err := wire(ctx, cfg, tel, log, &cleanup)
	if err != nil {
		log.Error("Startup failed", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        deps.engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
	// flushed after the last request so its spans and metrics are exported
	tel.shutdown(shutdownCtx, log)
	log.Info("Server stopped")
	return nil
}

type telemetryProviders struct {
	cfg     telemetry.Config
	traces  *telemetry.TracerProvider
	metrics *telemetry.MeterProvider
	logs    *telemetry.LoggerProvider
}

// startTelemetry builds the three providers. Each is a no-op unless
// telemetry.enabled is set.
func startTelemetry(ctx context.Context, cfg telemetry.Config, log *zap.Logger) (*telemetryProviders, error) {
	var (
		tp  = &telemetryProviders{cfg: cfg}
		err error
	)
	if tp.traces, err = telemetry.NewTracerProvider(ctx, cfg, log); err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}
	if tp.metrics, err = telemetry.NewMeterProvider(ctx, cfg, log); err != nil {
		return nil, fmt.Errorf("meter provider: %w", err)
	}
	if tp.logs, err = telemetry.NewLoggerProvider(ctx, cfg, log); err != nil {
		return nil, fmt.Errorf("logger provider: %w", err)
	}
	return tp, nil
}

func (tp *telemetryProviders) shutdown(ctx context.Context, log *zap.Logger) {
	for name, fn := range map[string]func(context.Context) error{
		"traces":  tp.traces.Shutdown,
		"metrics": tp.metrics.Shutdown,
		"logs":    tp.logs.Shutdown,
	} {
		if err := fn(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("signal", name), zap.Error(err))
		}
	}
}

// cleanupStack closes resources in reverse order of acquisition
type cleanupStack []func() error

func (s *cleanupStack) push(name string, fn func() error) {
	*s = append(*s, func() error {
		if err := fn(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		return nil
	})
}

func (s cleanupStack) run(log *zap.Logger) {
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i](); err != nil {
			log.Error("Cleanup failed", zap.Error(err))
		}
	}
}
