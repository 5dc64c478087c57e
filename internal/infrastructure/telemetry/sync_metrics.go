package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics holds the instruments for sync engine observability. The
// instruments write through the global meter provider, so they are no-ops
// until NewMeterProvider has run with metrics enabled.
type SyncMetrics struct {
	recordsSynced metric.Int64Counter
	recordsFailed metric.Int64Counter
	cycleDuration metric.Float64Histogram
	cyclesTotal   metric.Int64Counter
}

// NewSyncMetrics creates the sync engine instruments
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter("booksync.sync")

	recordsSynced, err := meter.Int64Counter(
		"sync.records.synced",
		metric.WithDescription("Records successfully synced from external platforms"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create records synced counter: %w", err)
	}

	recordsFailed, err := meter.Int64Counter(
		"sync.records.failed",
		metric.WithDescription("Records that landed in the reconciliation ledger"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create records failed counter: %w", err)
	}

	cycleDuration, err := meter.Float64Histogram(
		"sync.cycle.duration",
		metric.WithDescription("Duration of complete sync cycles"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle duration histogram: %w", err)
	}

	cyclesTotal, err := meter.Int64Counter(
		"sync.cycles.total",
		metric.WithDescription("Sync cycles run, by outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycles counter: %w", err)
	}

	return &SyncMetrics{
		recordsSynced: recordsSynced,
		recordsFailed: recordsFailed,
		cycleDuration: cycleDuration,
		cyclesTotal:   cyclesTotal,
	}, nil
}

// RecordSynced counts one successfully loaded record
func (m *SyncMetrics) RecordSynced(ctx context.Context, integrationType, objectType string) {
	m.recordsSynced.Add(ctx, 1, metric.WithAttributes(
		attribute.String("integration_type", integrationType),
		attribute.String("object_type", objectType),
	))
}

// RecordFailed counts one record-level failure
func (m *SyncMetrics) RecordFailed(ctx context.Context, integrationType, objectType string) {
	m.recordsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("integration_type", integrationType),
		attribute.String("object_type", objectType),
	))
}

// RecordCycle records one completed sync cycle and its outcome
func (m *SyncMetrics) RecordCycle(ctx context.Context, integrationType string, duration time.Duration, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("integration_type", integrationType),
		attribute.Bool("success", success),
	)
	m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
	m.cyclesTotal.Add(ctx, 1, attrs)
}
