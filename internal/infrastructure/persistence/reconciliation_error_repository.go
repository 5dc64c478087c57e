package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

// GormReconciliationErrorRepository implements ReconciliationErrorRepository using GORM
type GormReconciliationErrorRepository struct {
	db *gorm.DB
}

// NewGormReconciliationErrorRepository creates a new GormReconciliationErrorRepository
func NewGormReconciliationErrorRepository(db *gorm.DB) *GormReconciliationErrorRepository {
	return &GormReconciliationErrorRepository{db: db}
}

// Record upserts a ledger row. The ledger is current-state: a second
// failure for the same (integration, object type, external id) replaces
// the earlier row rather than accumulating history.
func (r *GormReconciliationErrorRepository) Record(ctx context.Context, e *integration.ReconciliationError) error {
	model := models.ReconciliationErrorModelFromDomain(e)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "integration_id"},
				{Name: "object_type"},
				{Name: "external_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"internal_id", "message", "retryable", "occurred_at"}),
		}).
		Create(model).Error
}

// ClearRecord removes the record-level row for an external id, if any.
// Clearing an absent row is not an error: success is self-healing.
func (r *GormReconciliationErrorRepository) ClearRecord(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) error {
	if externalID == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&models.ReconciliationErrorModel{},
			"integration_id = ? AND object_type = ? AND external_id = ?",
			integrationID, objectType.String(), externalID).Error
}

// ClearSystem removes all system-level rows for a reader
func (r *GormReconciliationErrorRepository) ClearSystem(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType) error {
	return r.db.WithContext(ctx).
		Delete(&models.ReconciliationErrorModel{},
			"integration_id = ? AND object_type = ? AND external_id = ''",
			integrationID, objectType.String()).Error
}

// FindByIntegration lists all ledger rows for an integration
func (r *GormReconciliationErrorRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]integration.ReconciliationError, error) {
	var errorModels []models.ReconciliationErrorModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("occurred_at DESC").
		Find(&errorModels).Error; err != nil {
		return nil, err
	}

	rows := make([]integration.ReconciliationError, len(errorModels))
	for i, model := range errorModels {
		rows[i] = *model.ToDomain()
	}
	return rows, nil
}

// FindRecord returns the record-level row for an external id, or nil
func (r *GormReconciliationErrorRepository) FindRecord(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (*integration.ReconciliationError, error) {
	var model models.ReconciliationErrorModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND object_type = ? AND external_id = ?",
			integrationID, objectType.String(), externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountByIntegration counts ledger rows for an integration
func (r *GormReconciliationErrorRepository) CountByIntegration(ctx context.Context, integrationID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReconciliationErrorModel{}).
		Where("integration_id = ?", integrationID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormReconciliationErrorRepository implements ReconciliationErrorRepository
var _ integration.ReconciliationErrorRepository = (*GormReconciliationErrorRepository)(nil)
