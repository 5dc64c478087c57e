package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/booksync/backend/internal/domain/integration"
)

// MockExtractor is a mock implementation of integration.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Initialize(ctx context.Context, account integration.Account, profile *integration.SyncProfile) error {
	args := m.Called(ctx, account, profile)
	return args.Error(0)
}

func (m *MockExtractor) GetObjects(ctx context.Context, profile *integration.SyncProfile, query integration.ReadQuery) (integration.RecordIterator, error) {
	args := m.Called(ctx, profile, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.RecordIterator), args.Error(1)
}

func (m *MockExtractor) GetObject(ctx context.Context, externalID string) (integration.RawRecord, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0), args.Error(1)
}

func (m *MockExtractor) ObjectID(record integration.RawRecord) (string, error) {
	args := m.Called(record)
	return args.String(0), args.Error(1)
}

// MockTransformer is a mock implementation of integration.Transformer
type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) Initialize(ctx context.Context, account integration.Account, profile *integration.SyncProfile) error {
	args := m.Called(ctx, account, profile)
	return args.Error(0)
}

func (m *MockTransformer) Transform(ctx context.Context, record integration.RawRecord) (integration.Record, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.Record), args.Error(1)
}

// MockLoader is a mock implementation of integration.Loader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, record integration.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockExternalMappingRepository is a mock implementation of integration.ExternalMappingRepository
type MockExternalMappingRepository struct {
	mock.Mock
}

func (m *MockExternalMappingRepository) Upsert(ctx context.Context, mapping *integration.ExternalMapping) (*integration.ExternalMapping, error) {
	args := m.Called(ctx, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ExternalMapping), args.Error(1)
}

func (m *MockExternalMappingRepository) Resolve(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (uuid.UUID, error) {
	args := m.Called(ctx, integrationID, objectType, externalID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockExternalMappingRepository) Find(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (*integration.ExternalMapping, error) {
	args := m.Called(ctx, integrationID, objectType, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ExternalMapping), args.Error(1)
}

func (m *MockExternalMappingRepository) DeleteByInternalID(ctx context.Context, objectType integration.ObjectType, internalID uuid.UUID) error {
	args := m.Called(ctx, objectType, internalID)
	return args.Error(0)
}

// MockReconciliationErrorRepository is a mock implementation of integration.ReconciliationErrorRepository
type MockReconciliationErrorRepository struct {
	mock.Mock
}

func (m *MockReconciliationErrorRepository) Record(ctx context.Context, e *integration.ReconciliationError) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockReconciliationErrorRepository) ClearRecord(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) error {
	args := m.Called(ctx, integrationID, objectType, externalID)
	return args.Error(0)
}

func (m *MockReconciliationErrorRepository) ClearSystem(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType) error {
	args := m.Called(ctx, integrationID, objectType)
	return args.Error(0)
}

func (m *MockReconciliationErrorRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]integration.ReconciliationError, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ReconciliationError), args.Error(1)
}

func (m *MockReconciliationErrorRepository) FindRecord(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (*integration.ReconciliationError, error) {
	args := m.Called(ctx, integrationID, objectType, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ReconciliationError), args.Error(1)
}

func (m *MockReconciliationErrorRepository) CountByIntegration(ctx context.Context, integrationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, integrationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSyncProfileRepository is a mock implementation of integration.SyncProfileRepository
type MockSyncProfileRepository struct {
	mock.Mock
}

func (m *MockSyncProfileRepository) Save(ctx context.Context, profile *integration.SyncProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockSyncProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncProfile), args.Error(1)
}

func (m *MockSyncProfileRepository) FindByTenantAndIntegration(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType) (*integration.SyncProfile, error) {
	args := m.Called(ctx, tenantID, integrationType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncProfile), args.Error(1)
}

func (m *MockSyncProfileRepository) FindEnabled(ctx context.Context) ([]integration.SyncProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncProfile), args.Error(1)
}

func (m *MockSyncProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStatusPublisher is a mock implementation of StatusPublisher
type MockStatusPublisher struct {
	mock.Mock
}

func (m *MockStatusPublisher) Publish(ctx context.Context, profileID uuid.UUID, message string) error {
	args := m.Called(ctx, profileID, message)
	return args.Error(0)
}

func (m *MockStatusPublisher) Clear(ctx context.Context, profileID uuid.UUID) error {
	args := m.Called(ctx, profileID)
	return args.Error(0)
}

// sliceIterator replays a fixed record sequence, optionally failing after
// a number of records to simulate a mid-stream query failure
type sliceIterator struct {
	records []integration.RawRecord
	idx     int
	failAt  int
	err     error
}

func newSliceIterator(records ...integration.RawRecord) *sliceIterator {
	return &sliceIterator{records: records, failAt: -1}
}

func (it *sliceIterator) Next(ctx context.Context) (integration.RawRecord, bool, error) {
	if it.failAt >= 0 && it.idx == it.failAt {
		return nil, false, it.err
	}
	if it.idx >= len(it.records) {
		return nil, false, nil
	}
	r := it.records[it.idx]
	it.idx++
	return r, true, nil
}
