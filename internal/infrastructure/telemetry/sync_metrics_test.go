package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/booksync/backend/internal/infrastructure/telemetry"
)

func TestNewSyncMetrics(t *testing.T) {
	metrics, err := telemetry.NewSyncMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)
}

func TestSyncMetricsRecordWithoutProvider(t *testing.T) {
	// With no meter provider configured the instruments are no-ops and
	// recording must not panic
	metrics, err := telemetry.NewSyncMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordSynced(ctx, "QUICKBOOKS", "INVOICE")
	metrics.RecordFailed(ctx, "QUICKBOOKS", "INVOICE")
	metrics.RecordCycle(ctx, "QUICKBOOKS", 3*time.Second, true)
	metrics.RecordCycle(ctx, "XERO", 7*time.Second, false)
}
