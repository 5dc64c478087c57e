package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// FXRateCache caches daily exchange rates fetched from the external
// platform so repeated conversions within one sync cycle do not re-query
// the vendor API. Callers hold an explicit handle; there is no process
// global.
type FXRateCache interface {
	// Get returns the cached rate for the currency pair on the given day.
	// ok is false on a miss.
	Get(ctx context.Context, base, quote string, day time.Time) (rate decimal.Decimal, ok bool, err error)

	// Put stores the rate for the currency pair on the given day
	Put(ctx context.Context, base, quote string, day time.Time, rate decimal.Decimal) error
}

// fxRateKey buckets rates per day so a whole day expires together
func fxRateKey(prefix string, day time.Time) string {
	return prefix + day.UTC().Format("2006-01-02")
}

func fxRateField(base, quote string) string {
	return base + "/" + quote
}

// ---------------------------------------------------------------------------
// Redis implementation
// ---------------------------------------------------------------------------

// fxRateTTL keeps a day's rates around long enough for backfills that
// revisit the same dates, without growing unbounded
const fxRateTTL = 7 * 24 * time.Hour

// RedisFXRateCache implements FXRateCache on a Redis hash per day
type RedisFXRateCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisFXRateCache creates an FX cache on an existing Redis client
func NewRedisFXRateCache(client *redis.Client, keyPrefix string) *RedisFXRateCache {
	if keyPrefix == "" {
		keyPrefix = "fx:rates:"
	}
	return &RedisFXRateCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached rate for the pair on the given day
func (c *RedisFXRateCache) Get(ctx context.Context, base, quote string, day time.Time) (decimal.Decimal, bool, error) {
	raw, err := c.client.HGet(ctx, fxRateKey(c.keyPrefix, day), fxRateField(base, quote)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read fx rate: %w", err)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt fx rate %q: %w", raw, err)
	}
	return rate, true, nil
}

// Put stores the rate and refreshes the day bucket's TTL
func (c *RedisFXRateCache) Put(ctx context.Context, base, quote string, day time.Time, rate decimal.Decimal) error {
	key := fxRateKey(c.keyPrefix, day)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fxRateField(base, quote), rate.String())
	pipe.Expire(ctx, key, fxRateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store fx rate: %w", err)
	}
	return nil
}

// Ensure RedisFXRateCache implements FXRateCache
var _ FXRateCache = (*RedisFXRateCache)(nil)

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// InMemoryFXRateCache implements FXRateCache for single-instance
// deployments and tests
type InMemoryFXRateCache struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewInMemoryFXRateCache creates an in-memory FX cache
func NewInMemoryFXRateCache() *InMemoryFXRateCache {
	return &InMemoryFXRateCache{
		rates: make(map[string]decimal.Decimal),
	}
}

// Get returns the cached rate for the pair on the given day
func (c *InMemoryFXRateCache) Get(ctx context.Context, base, quote string, day time.Time) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.rates[fxRateKey("", day)+":"+fxRateField(base, quote)]
	return rate, ok, nil
}

// Put stores the rate
func (c *InMemoryFXRateCache) Put(ctx context.Context, base, quote string, day time.Time, rate decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[fxRateKey("", day)+":"+fxRateField(base, quote)] = rate
	return nil
}

// Ensure InMemoryFXRateCache implements FXRateCache
var _ FXRateCache = (*InMemoryFXRateCache)(nil)
