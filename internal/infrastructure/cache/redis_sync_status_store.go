package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appsync "github.com/booksync/backend/internal/application/sync"
)

// statusTTL bounds how long a status message can outlive a sync that never
// cleared it, such as after a crashed worker
const statusTTL = 24 * time.Hour

// RedisSyncStatusStore implements the sync status publisher on Redis so
// every API instance sees the status written by any worker. One message
// per profile, last write wins.
type RedisSyncStatusStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSyncStatusStore creates a status store on an existing Redis client
func NewRedisSyncStatusStore(client *redis.Client, keyPrefix string) *RedisSyncStatusStore {
	if keyPrefix == "" {
		keyPrefix = "sync:status:"
	}
	return &RedisSyncStatusStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Publish replaces the status message for the profile
func (s *RedisSyncStatusStore) Publish(ctx context.Context, profileID uuid.UUID, message string) error {
	key := s.keyPrefix + profileID.String()
	if err := s.client.Set(ctx, key, message, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to publish sync status: %w", err)
	}
	return nil
}

// Clear removes the status message for the profile
func (s *RedisSyncStatusStore) Clear(ctx context.Context, profileID uuid.UUID) error {
	key := s.keyPrefix + profileID.String()
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear sync status: %w", err)
	}
	return nil
}

// Status returns the current message for the profile, empty when no sync
// is in flight
func (s *RedisSyncStatusStore) Status(ctx context.Context, profileID uuid.UUID) (string, error) {
	key := s.keyPrefix + profileID.String()
	message, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read sync status: %w", err)
	}
	return message, nil
}

// Ensure RedisSyncStatusStore implements StatusPublisher
var _ appsync.StatusPublisher = (*RedisSyncStatusStore)(nil)
