package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextRoundTrip(t *testing.T) {
	l := zap.NewNop()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContextWithoutLoggerIsNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	// Must be safe to use
	l.Info("no logger attached")
}

func TestWithRequestIDTagsLoggerAndContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx, child := WithRequestID(context.Background(), zap.New(core), "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, child, FromContext(ctx))

	child.Info("triggered ongoing sync")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestWithTenantIDTagsLoggerAndContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx, child := WithTenantID(context.Background(), zap.New(core), "tenant-9")

	assert.Equal(t, "tenant-9", GetTenantID(ctx))

	child.Warn("sync queue is filling up")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tenant-9", entries[0].ContextMap()["tenant_id"])
}

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTenantID(ctx))
}

func TestWithTraceContextNoSpanIsUnchanged(t *testing.T) {
	l := zap.NewNop()
	assert.Same(t, l, WithTraceContext(context.Background(), l))
}

func TestWithTraceContextTagsTraceAndSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "sync.cycle")
	defer span.End()

	core, logs := observer.New(zap.InfoLevel)
	WithTraceContext(ctx, zap.New(core)).Info("cycle started")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}
