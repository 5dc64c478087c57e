package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySyncStatusStoreLastWriteWins(t *testing.T) {
	store := NewInMemorySyncStatusStore()
	ctx := context.Background()
	profileID := uuid.New()

	require.NoError(t, store.Publish(ctx, profileID, "Syncing QuickBooks customers for Acme Corp"))
	require.NoError(t, store.Publish(ctx, profileID, "Syncing QuickBooks invoices for Acme Corp"))

	message, err := store.Status(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, "Syncing QuickBooks invoices for Acme Corp", message)
}

func TestInMemorySyncStatusStoreClear(t *testing.T) {
	store := NewInMemorySyncStatusStore()
	ctx := context.Background()
	profileID := uuid.New()

	require.NoError(t, store.Publish(ctx, profileID, "Syncing Xero payments for Acme Corp"))
	require.NoError(t, store.Clear(ctx, profileID))

	message, err := store.Status(ctx, profileID)
	require.NoError(t, err)
	assert.Empty(t, message)

	// Clearing an absent status is a no-op
	require.NoError(t, store.Clear(ctx, uuid.New()))
}

func TestInMemorySyncStatusStoreIsPerProfile(t *testing.T) {
	store := NewInMemorySyncStatusStore()
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, store.Publish(ctx, first, "Syncing NetSuite credit notes for Globex"))

	message, err := store.Status(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, message)
}
