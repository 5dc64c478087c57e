package synclock

import (
	"context"
	"sync"
	"time"
)

// InMemorySyncLock implements SyncLock for single-instance deployments
// and tests. Expired entries are reaped lazily on the next Acquire.
type InMemorySyncLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewInMemorySyncLock creates an in-memory lock
func NewInMemorySyncLock() *InMemorySyncLock {
	return &InMemorySyncLock{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the lock for the key, returning false when it is already
// held and not yet expired
func (l *InMemorySyncLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiry, ok := l.held[key]; ok && now.Before(expiry) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

// Release frees the lock for the key
func (l *InMemorySyncLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// Ensure InMemorySyncLock implements SyncLock
var _ SyncLock = (*InMemorySyncLock)(nil)
