package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// DBTracingConfig configures DBTracingPlugin
type DBTracingConfig struct {
	DBSystem        string        // "postgresql" or "sqlite"
	LogFullSQL      bool          // include query variables in spans (dev only)
	SlowQueryThresh time.Duration // statements slower than this are flagged on their span
}

// DBTracingPlugin installs otelgorm and annotates each statement span with
// its table, affected rows, error and a slow query flag. Pass it to
// persistence.WithPlugins.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

var _ gorm.Plugin = (*DBTracingPlugin)(nil)

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQueryThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

func (p *DBTracingPlugin) Name() string { return "cotiza:db_tracing" }

func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// annotations must land before otelgorm ends the span
	cb := db.Callback()
	err := errors.Join(
		cb.Create().After("gorm:create").Before("otel:after:create").Register("cotiza:annotate_create", p.annotateSpan),
		cb.Query().After("gorm:query").Before("otel:after:query").Register("cotiza:annotate_query", p.annotateSpan),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("cotiza:annotate_update", p.annotateSpan),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("cotiza:annotate_delete", p.annotateSpan),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("cotiza:annotate_row", p.annotateSpan),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("cotiza:annotate_raw", p.annotateSpan),
	)
	if err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh))
	return nil
}

// startTimer is implemented by SDK spans; no-op spans lack it
type startTimer interface {
	StartTime() time.Time
}

func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	stmt := db.Statement
	if stmt == nil || stmt.Context == nil {
		return
	}
	span := trace.SpanFromContext(stmt.Context)
	if !span.IsRecording() {
		return
	}

	kv := make([]attribute.KeyValue, 0, 4)
	if stmt.RowsAffected >= 0 {
		kv = append(kv, attribute.Int64("db.rows_affected", stmt.RowsAffected))
	}
	if stmt.Table != "" {
		kv = append(kv, attribute.String("db.sql.table", stmt.Table))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	st, ok := span.(startTimer)
	if !ok {
		span.SetAttributes(kv...)
		return
	}
	elapsed := time.Since(st.StartTime())
	if elapsed <= p.config.SlowQueryThresh {
		span.SetAttributes(kv...)
		return
	}

	ms := elapsed.Milliseconds()
	span.SetAttributes(append(kv,
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", ms))...)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", ms),
		attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds())))
	p.logger.Warn("Slow query", zap.String("table", stmt.Table), zap.Duration("elapsed", elapsed))
}
