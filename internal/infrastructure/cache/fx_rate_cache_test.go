package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFXRateCacheRoundTrip(t *testing.T) {
	cache := NewInMemoryFXRateCache()
	ctx := context.Background()
	day := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)

	_, ok, err := cache.Get(ctx, "USD", "EUR", day)
	require.NoError(t, err)
	assert.False(t, ok)

	rate := decimal.RequireFromString("0.9132")
	require.NoError(t, cache.Put(ctx, "USD", "EUR", day, rate))

	got, ok, err := cache.Get(ctx, "USD", "EUR", day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(got))
}

func TestInMemoryFXRateCacheKeysByDayAndPair(t *testing.T) {
	cache := NewInMemoryFXRateCache()
	ctx := context.Background()
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Put(ctx, "USD", "EUR", day, decimal.RequireFromString("0.91")))

	// Same pair, different day
	_, ok, err := cache.Get(ctx, "USD", "EUR", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	// Same day, reversed pair
	_, ok, err = cache.Get(ctx, "EUR", "USD", day)
	require.NoError(t, err)
	assert.False(t, ok)

	// Time of day within the same UTC date does not matter
	_, ok, err = cache.Get(ctx, "USD", "EUR", day.Add(23*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
}
