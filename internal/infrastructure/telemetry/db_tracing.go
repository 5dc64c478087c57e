package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the otelgorm integration for the sync store.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL records query variables in spans. Keep it off outside
	// development: payloads can carry customer data.
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DefaultDBTracingConfig returns a disabled config with safe defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		DBSystem:           "postgresql",
	}
}

// DBTracingPlugin installs otelgorm on a GORM instance and annotates the
// resulting spans with row counts, table names, errors, and slow query
// events.
type DBTracingPlugin struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{cfg: cfg, logger: logger}
}

// RegisterOtelGorm wires the plugin into db. A no-op when tracing is
// disabled, so callers can register unconditionally.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThreshold),
		zap.String("db_system", p.cfg.DBSystem),
	)
	return nil
}

// registerCallbacks hooks every GORM operation: a before callback stamps
// the query start time into the statement context, an after callback
// annotates the span otelgorm opened.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	cb := db.Callback()
	keep(cb.Create().Before("gorm:create").Register("sync_tracing:before_create", markQueryStart))
	keep(cb.Query().Before("gorm:query").Register("sync_tracing:before_query", markQueryStart))
	keep(cb.Update().Before("gorm:update").Register("sync_tracing:before_update", markQueryStart))
	keep(cb.Delete().Before("gorm:delete").Register("sync_tracing:before_delete", markQueryStart))
	keep(cb.Row().Before("gorm:row").Register("sync_tracing:before_row", markQueryStart))
	keep(cb.Raw().Before("gorm:raw").Register("sync_tracing:before_raw", markQueryStart))

	keep(cb.Create().After("gorm:create").Register("sync_tracing:after_create", p.annotateSpan))
	keep(cb.Query().After("gorm:query").Register("sync_tracing:after_query", p.annotateSpan))
	keep(cb.Update().After("gorm:update").Register("sync_tracing:after_update", p.annotateSpan))
	keep(cb.Delete().After("gorm:delete").Register("sync_tracing:after_delete", p.annotateSpan))
	keep(cb.Row().After("gorm:row").Register("sync_tracing:after_row", p.annotateSpan))
	keep(cb.Raw().After("gorm:raw").Register("sync_tracing:after_raw", p.annotateSpan))

	return firstErr
}

type queryStartKey struct{}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// annotateSpan runs after each operation. ErrRecordNotFound is not an
// error at this layer: lookups that miss are normal sync engine flow.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThreshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.cfg.SlowQueryThreshold.Milliseconds()),
		))
	}
}
