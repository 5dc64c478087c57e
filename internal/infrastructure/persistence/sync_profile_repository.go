package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

// GormSyncProfileRepository implements SyncProfileRepository using GORM
type GormSyncProfileRepository struct {
	db *gorm.DB
}

// NewGormSyncProfileRepository creates a new GormSyncProfileRepository
func NewGormSyncProfileRepository(db *gorm.DB) *GormSyncProfileRepository {
	return &GormSyncProfileRepository{db: db}
}

// Save creates or updates a profile
func (r *GormSyncProfileRepository) Save(ctx context.Context, profile *integration.SyncProfile) error {
	model := models.SyncProfileModelFromDomain(profile)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a profile by id
func (r *GormSyncProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncProfile, error) {
	var model models.SyncProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProfileNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenantAndIntegration finds the profile for a tenant/integration pair
func (r *GormSyncProfileRepository) FindByTenantAndIntegration(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType) (*integration.SyncProfile, error) {
	var model models.SyncProfileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND integration_type = ?", tenantID, integrationType.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProfileNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindEnabled finds all enabled profiles
func (r *GormSyncProfileRepository) FindEnabled(ctx context.Context) ([]integration.SyncProfile, error) {
	var profileModels []models.SyncProfileModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&profileModels).Error; err != nil {
		return nil, err
	}

	profiles := make([]integration.SyncProfile, len(profileModels))
	for i, model := range profileModels {
		profiles[i] = *model.ToDomain()
	}
	return profiles, nil
}

// Delete deletes a profile
func (r *GormSyncProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SyncProfileModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrProfileNotFound
	}
	return nil
}

// Ensure GormSyncProfileRepository implements SyncProfileRepository
var _ integration.SyncProfileRepository = (*GormSyncProfileRepository)(nil)
