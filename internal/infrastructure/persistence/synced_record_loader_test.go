package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared/valueobject"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

type loaderFixture struct {
	db       *gorm.DB
	loader   *GormSyncedRecordLoader
	mappings *GormExternalMappingRepository
	profile  *integration.SyncProfile
}

func newLoaderFixture(t *testing.T) *loaderFixture {
	t.Helper()
	db := setupSyncTestDB(t)

	profiles := NewGormSyncProfileRepository(db)
	mappings := NewGormExternalMappingRepository(db)

	profile, err := integration.NewSyncProfile(uuid.New(), integration.IntegrationTypeQuickBooks)
	require.NoError(t, err)
	require.NoError(t, profiles.Save(context.Background(), profile))

	return &loaderFixture{
		db:       db,
		loader:   NewGormSyncedRecordLoader(db, mappings, profiles, zap.NewNop()),
		mappings: mappings,
		profile:  profile,
	}
}

func (f *loaderFixture) row(t *testing.T, internalID uuid.UUID) *models.SyncedRecordModel {
	t.Helper()
	var model models.SyncedRecordModel
	require.NoError(t, f.db.First(&model, "id = ?", internalID).Error)
	return &model
}

func TestSyncedRecordLoaderCreatesMappingAndRow(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	err := f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-1",
		Values:        map[string]any{"name": "Acme Corp", "email": "ap@acme.test"},
	})
	require.NoError(t, err)

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-1")
	require.NoError(t, err)

	row := f.row(t, internalID)
	assert.Equal(t, f.profile.TenantID, row.TenantID)
	assert.Equal(t, "CUSTOMER", row.ObjectType)
	assert.Equal(t, "cust-1", row.ExternalID)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(row.Fields), &fields))
	assert.Equal(t, "Acme Corp", fields["name"])
}

func TestSyncedRecordLoaderIsIdempotent(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	first := &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-7",
		Values:        map[string]any{"name": "Old Name"},
	}
	require.NoError(t, f.loader.Load(ctx, first))

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-7")
	require.NoError(t, err)

	second := &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-7",
		Values:        map[string]any{"name": "New Name"},
	}
	require.NoError(t, f.loader.Load(ctx, second))

	again, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-7")
	require.NoError(t, err)
	assert.Equal(t, internalID, again, "re-loading the same external id must keep the internal id")

	var count int64
	require.NoError(t, f.db.Model(&models.SyncedRecordModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	row := f.row(t, internalID)
	assert.Contains(t, row.Fields, "New Name")
}

func TestSyncedRecordLoaderInvoiceStructuredFields(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	balance := valueobject.MustMoney("120.50", "USD")
	err := f.loader.Load(ctx, &integration.Invoice{
		IntegrationID:      f.profile.ID,
		ExternalID:         "inv-1",
		CustomerExternalID: "cust-1",
		Values:             map[string]any{"number": "INV-0001"},
		Balance:            &balance,
		Installments: []integration.InvoiceInstallment{
			{Sequence: 1, DueAt: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Amount: valueobject.MustMoney("60.25", "USD")},
			{Sequence: 2, DueAt: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), Amount: valueobject.MustMoney("60.25", "USD")},
		},
	})
	require.NoError(t, err)

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeInvoice, "inv-1")
	require.NoError(t, err)

	row := f.row(t, internalID)
	assert.False(t, row.Voided)
	assert.Contains(t, row.Balance, "120.5")

	var installments []map[string]any
	require.NoError(t, json.Unmarshal([]byte(row.Installments), &installments))
	require.Len(t, installments, 2)
	assert.Equal(t, float64(1), installments[0]["sequence"])
}

func TestSyncedRecordLoaderVoidKeepsRow(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	require.NoError(t, f.loader.Load(ctx, &integration.Invoice{
		IntegrationID: f.profile.ID,
		ExternalID:    "inv-2",
		Values:        map[string]any{"number": "INV-0002"},
	}))

	require.NoError(t, f.loader.Load(ctx, &integration.Invoice{
		IntegrationID: f.profile.ID,
		ExternalID:    "inv-2",
		Values:        map[string]any{"number": "INV-0002"},
		Voided:        true,
	}))

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeInvoice, "inv-2")
	require.NoError(t, err)
	assert.True(t, f.row(t, internalID).Voided)
}

func TestSyncedRecordLoaderDeleteRemovesRowAndMapping(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	require.NoError(t, f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-9",
		Values:        map[string]any{"name": "Gone Inc"},
	}))

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-9")
	require.NoError(t, err)

	require.NoError(t, f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-9",
		Deleted:       true,
	}))

	_, err = f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-9")
	assert.ErrorIs(t, err, integration.ErrExternalMappingNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.SyncedRecordModel{}).Where("id = ?", internalID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncedRecordLoaderDeleteForUnknownRecordIsNoop(t *testing.T) {
	f := newLoaderFixture(t)

	err := f.loader.Load(context.Background(), &integration.Payment{
		IntegrationID: f.profile.ID,
		ExternalID:    "pay-never-seen",
		Deleted:       true,
	})
	assert.NoError(t, err)
}

func TestSyncedRecordLoaderClearsLedgerRowWithLoad(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	ledger := NewGormReconciliationErrorRepository(f.db)

	row := integration.NewRecordError(f.profile.TenantID, f.profile.ID,
		integration.ObjectTypeCustomer, "cust-3", nil, "bad email", true)
	require.NoError(t, ledger.Record(ctx, row))

	require.NoError(t, f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-3",
		Values:        map[string]any{"name": "Fixed Inc"},
	}))

	cleared, err := ledger.FindRecord(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-3")
	require.NoError(t, err)
	assert.Nil(t, cleared, "a committed load must take the ledger row with it")
}

func TestSyncedRecordLoaderLoadRollsBackWhenLedgerClearFails(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	// Make the ledger delete fail mid-transaction
	require.NoError(t, f.db.Migrator().DropTable(&models.ReconciliationErrorModel{}))

	err := f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-5",
		Values:        map[string]any{"name": "Half Done Ltd"},
	})
	require.Error(t, err, "a load that cannot clear the ledger must not report success")

	var count int64
	require.NoError(t, f.db.Model(&models.SyncedRecordModel{}).Count(&count).Error)
	assert.Zero(t, count, "the record write must roll back with the failed clear")
}

func TestSyncedRecordLoaderDeleteClearsLedgerRow(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	ledger := NewGormReconciliationErrorRepository(f.db)

	require.NoError(t, f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-11",
		Values:        map[string]any{"name": "Leaving Co"},
	}))
	require.NoError(t, ledger.Record(ctx, integration.NewRecordError(
		f.profile.TenantID, f.profile.ID, integration.ObjectTypeCustomer, "cust-11", nil, "stale address", true)))

	require.NoError(t, f.loader.Load(ctx, &integration.Customer{
		IntegrationID: f.profile.ID,
		ExternalID:    "cust-11",
		Deleted:       true,
	}))

	row, err := ledger.FindRecord(ctx, f.profile.ID, integration.ObjectTypeCustomer, "cust-11")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSyncedRecordLoaderPaymentSplits(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()

	err := f.loader.Load(ctx, &integration.Payment{
		IntegrationID: f.profile.ID,
		ExternalID:    "pay-1",
		Values:        map[string]any{"reference": "PMT-100"},
		AppliedTo: []integration.PaymentSplit{
			{InvoiceExternalID: "inv-1", Source: integration.PaymentSplitSourceCredit, CreditExternalID: "cn-1", Amount: valueobject.MustMoney("30.00", "USD")},
			{InvoiceExternalID: "inv-1", Source: integration.PaymentSplitSourceCash, Amount: valueobject.MustMoney("70.00", "USD")},
		},
	})
	require.NoError(t, err)

	internalID, err := f.mappings.Resolve(ctx, f.profile.ID, integration.ObjectTypePayment, "pay-1")
	require.NoError(t, err)

	var splits []map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.row(t, internalID).Splits), &splits))
	require.Len(t, splits, 2)
	assert.Equal(t, "CREDIT", splits[0]["source"])
	assert.Equal(t, "cn-1", splits[0]["credit_external_id"])
	assert.Equal(t, "CASH", splits[1]["source"])
}
