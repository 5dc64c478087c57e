package synclock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the lock safety valve: a stuck sync's lock expires after
// 24h so a future sync is not permanently blocked, at the cost of a rare
// overlapping run if a sync genuinely exceeds that duration.
const DefaultTTL = 24 * time.Hour

// SyncLock enforces at-most-one in-flight sync per tenant/integration.
// Acquire either takes the lock or reports it held; the scheduler delays
// and requeues the job on contention rather than dropping it.
type SyncLock interface {
	// Acquire takes the lock for the key, returning false when it is
	// already held
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for the key
	Release(ctx context.Context, key string) error
}

// Key builds the concurrency key for a tenant/integration pair
func Key(tenantID, integrationID uuid.UUID) string {
	return fmt.Sprintf("sync:lock:%s:%s", tenantID, integrationID)
}
