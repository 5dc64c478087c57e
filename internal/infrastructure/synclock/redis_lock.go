package synclock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSyncLock implements SyncLock on Redis. Suitable for distributed
// deployments where multiple worker instances share the lock space.
type RedisSyncLock struct {
	client *redis.Client
}

// NewRedisSyncLock creates a lock backed by an existing Redis client
func NewRedisSyncLock(client *redis.Client) *RedisSyncLock {
	return &RedisSyncLock{client: client}
}

// Acquire takes the lock with SETNX so acquisition and TTL are one atomic
// operation. Returns false when another sync holds the key.
func (l *RedisSyncLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock
func (l *RedisSyncLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}

// Ensure RedisSyncLock implements SyncLock
var _ SyncLock = (*RedisSyncLock)(nil)
