// Package telemetry wires OpenTelemetry traces, metrics and logs to an OTLP
// collector. Every provider is a no-op unless telemetry.enabled is set.
package telemetry

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	flushTimeout          = 10 * time.Second
	defaultExportInterval = time.Minute
)

// Config is the telemetry section plus the build version
type Config struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	SamplingRatio  float64
	ServiceName    string
	ServiceVersion string
	ExportInterval time.Duration
}

// NewConfig maps the telemetry config section
func NewConfig(cfg config.TelemetryConfig, version string) Config {
	return Config{
		Enabled:        cfg.Enabled,
		Endpoint:       cfg.CollectorEndpoint,
		Insecure:       cfg.Insecure,
		SamplingRatio:  cfg.SamplingRatio,
		ServiceName:    cmp.Or(cfg.ServiceName, "cotiza-backend"),
		ServiceVersion: cmp.Or(version, "dev"),
		ExportInterval: defaultExportInterval,
	}
}

// resource describes this process to the collector
func (c Config) resource() (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(c.ServiceName),
		semconv.ServiceVersion(c.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// flush runs an SDK Shutdown with a bounded deadline
func flush(ctx context.Context, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", signal, err)
	}
	return nil
}
