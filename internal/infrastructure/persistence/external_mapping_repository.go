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

// GormExternalMappingRepository implements ExternalMappingRepository using GORM
type GormExternalMappingRepository struct {
	db *gorm.DB
}

// NewGormExternalMappingRepository creates a new GormExternalMappingRepository
func NewGormExternalMappingRepository(db *gorm.DB) *GormExternalMappingRepository {
	return &GormExternalMappingRepository{db: db}
}

// Upsert inserts the mapping if absent and returns the stored row. The
// insert-or-get is atomic under the unique index on (integration_id,
// object_type, external_id): a conflicting insert is a no-op and the
// existing row is read back, so concurrent record processing can never
// mint two internal ids for the same external id.
func (r *GormExternalMappingRepository) Upsert(ctx context.Context, mapping *integration.ExternalMapping) (*integration.ExternalMapping, error) {
	model := models.ExternalMappingModelFromDomain(mapping)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "integration_id"},
				{Name: "object_type"},
				{Name: "external_id"},
			},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected > 0 {
		return model.ToDomain(), nil
	}
	return r.Find(ctx, mapping.IntegrationID, mapping.ObjectType, mapping.ExternalID)
}

// Resolve returns the internal id for an external id
func (r *GormExternalMappingRepository) Resolve(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (uuid.UUID, error) {
	mapping, err := r.Find(ctx, integrationID, objectType, externalID)
	if err != nil {
		return uuid.Nil, err
	}
	return mapping.InternalID, nil
}

// Find returns the mapping row for an external id
func (r *GormExternalMappingRepository) Find(ctx context.Context, integrationID uuid.UUID, objectType integration.ObjectType, externalID string) (*integration.ExternalMapping, error) {
	var model models.ExternalMappingModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND object_type = ? AND external_id = ?", integrationID, objectType.String(), externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrExternalMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DeleteByInternalID removes the mapping when the owning internal record
// is deleted
func (r *GormExternalMappingRepository) DeleteByInternalID(ctx context.Context, objectType integration.ObjectType, internalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ExternalMappingModel{}, "object_type = ? AND internal_id = ?", objectType.String(), internalID).Error
}

// Ensure GormExternalMappingRepository implements ExternalMappingRepository
var _ integration.ExternalMappingRepository = (*GormExternalMappingRepository)(nil)
