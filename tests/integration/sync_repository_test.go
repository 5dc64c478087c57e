package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/persistence"
)

func TestSyncProfileLifecycleOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	tdb := NewTestDB(t)
	repo := persistence.NewGormSyncProfileRepository(tdb.DB)
	ctx := context.Background()

	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeXero)
	require.NoError(t, err)
	profile.LocationFilters = []string{"LOC-1"}
	require.NoError(t, repo.Save(ctx, profile))

	found, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.TenantID, found.TenantID)
	assert.Equal(t, []string{"LOC-1"}, found.LocationFilters)
	assert.Nil(t, found.ReadCursor)

	cursor := time.Now().UTC().Truncate(time.Second)
	found.AdvanceCursor(cursor)
	require.NoError(t, repo.Save(ctx, found))

	reloaded, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ReadCursor)
	assert.WithinDuration(t, cursor, *reloaded.ReadCursor, time.Second)

	// One profile per (tenant, integration) is enforced by the database
	duplicate, err := integration.NewSyncProfile(profile.TenantID, integration.IntegrationTypeXero)
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, duplicate))
}

// TestExternalMappingUpsertIsAtomicOnPostgres drives the insert-or-get
// upsert from many goroutines against a real database. Every caller must
// see the same internal id, no matter who wins the insert race.
func TestExternalMappingUpsertIsAtomicOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	tdb := NewTestDB(t)
	repo := persistence.NewGormExternalMappingRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	integrationID := uuid.New()

	const workers = 8
	results := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			candidate, err := integration.NewExternalMapping(
				tenantID, integrationID, integration.ObjectTypeInvoice, "inv-race", uuid.New())
			if err != nil {
				errs[n] = err
				return
			}
			stored, err := repo.Upsert(ctx, candidate)
			if err != nil {
				errs[n] = err
				return
			}
			results[n] = stored.InternalID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i], "all upserts must converge on one internal id")
	}
}

func TestReconciliationLedgerIsCurrentStateOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	tdb := NewTestDB(t)
	repo := persistence.NewGormReconciliationErrorRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	integrationID := uuid.New()

	first := integration.NewRecordError(tenantID, integrationID, integration.ObjectTypePayment, "pay-1", nil, "first failure", true)
	require.NoError(t, repo.Record(ctx, first))

	second := integration.NewRecordError(tenantID, integrationID, integration.ObjectTypePayment, "pay-1", nil, "second failure", true)
	require.NoError(t, repo.Record(ctx, second))

	rows, err := repo.FindByIntegration(ctx, integrationID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "re-recording the same identity replaces the row")
	assert.Equal(t, "second failure", rows[0].Message)

	systemRow := integration.NewSystemError(tenantID, integrationID, integration.ObjectTypePayment, "query timed out", true)
	require.NoError(t, repo.Record(ctx, systemRow))

	rows, err = repo.FindByIntegration(ctx, integrationID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "system-level row coexists with record rows")

	require.NoError(t, repo.ClearRecord(ctx, integrationID, integration.ObjectTypePayment, "pay-1"))
	require.NoError(t, repo.ClearSystem(ctx, integrationID, integration.ObjectTypePayment))

	count, err := repo.CountByIntegration(ctx, integrationID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSyncedRecordLoaderOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	tdb := NewTestDB(t)
	ctx := context.Background()

	profiles := persistence.NewGormSyncProfileRepository(tdb.DB)
	mappings := persistence.NewGormExternalMappingRepository(tdb.DB)
	loader := persistence.NewGormSyncedRecordLoader(tdb.DB, mappings, profiles, zap.NewNop())

	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)
	require.NoError(t, profiles.Save(ctx, profile))

	require.NoError(t, loader.Load(ctx, &integration.Customer{
		IntegrationID: profile.ID,
		ExternalID:    "cust-pg-1",
		Values:        map[string]any{"name": "Postgres Corp"},
	}))

	internalID, err := mappings.Resolve(ctx, profile.ID, integration.ObjectTypeCustomer, "cust-pg-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, internalID)

	// Second load of the same external id reuses the row
	require.NoError(t, loader.Load(ctx, &integration.Customer{
		IntegrationID: profile.ID,
		ExternalID:    "cust-pg-1",
		Values:        map[string]any{"name": "Postgres Corp Renamed"},
	}))

	again, err := mappings.Resolve(ctx, profile.ID, integration.ObjectTypeCustomer, "cust-pg-1")
	require.NoError(t, err)
	assert.Equal(t, internalID, again)
}
