package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	appsync "github.com/booksync/backend/internal/application/sync"
)

// InMemorySyncStatusStore implements the sync status publisher for
// single-instance deployments and tests
type InMemorySyncStatusStore struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]string
}

// NewInMemorySyncStatusStore creates an in-memory status store
func NewInMemorySyncStatusStore() *InMemorySyncStatusStore {
	return &InMemorySyncStatusStore{
		messages: make(map[uuid.UUID]string),
	}
}

// Publish replaces the status message for the profile
func (s *InMemorySyncStatusStore) Publish(ctx context.Context, profileID uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[profileID] = message
	return nil
}

// Clear removes the status message for the profile
func (s *InMemorySyncStatusStore) Clear(ctx context.Context, profileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, profileID)
	return nil
}

// Status returns the current message for the profile, empty when no sync
// is in flight
func (s *InMemorySyncStatusStore) Status(ctx context.Context, profileID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages[profileID], nil
}

// Ensure InMemorySyncStatusStore implements StatusPublisher
var _ appsync.StatusPublisher = (*InMemorySyncStatusStore)(nil)
