package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appsync "github.com/booksync/backend/internal/application/sync"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

// GormIntegrationAccountRepository stores per-tenant vendor credentials
// and serves as the account provider for the sync service
type GormIntegrationAccountRepository struct {
	db *gorm.DB
}

// NewGormIntegrationAccountRepository creates a new GormIntegrationAccountRepository
func NewGormIntegrationAccountRepository(db *gorm.DB) *GormIntegrationAccountRepository {
	return &GormIntegrationAccountRepository{db: db}
}

// Save creates or updates the account for a tenant/integration pair
func (r *GormIntegrationAccountRepository) Save(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType, name string, credentials map[string]string) error {
	var model models.IntegrationAccountModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND integration_type = ?", tenantID, integrationType.String()).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.IntegrationAccountModel{
			ID:              uuid.New(),
			TenantID:        tenantID,
			IntegrationType: integrationType.String(),
			CreatedAt:       time.Now(),
		}
	} else if err != nil {
		return err
	}

	model.Name = name
	model.SetCredentials(credentials)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&model).Error
}

// Account returns the account for the tenant/integration pair
func (r *GormIntegrationAccountRepository) Account(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType) (integration.Account, error) {
	var model models.IntegrationAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND integration_type = ?", tenantID, integrationType.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return integration.Account{}, integration.ErrAccountNotFound
		}
		return integration.Account{}, err
	}
	return model.ToAccount(), nil
}

// Delete removes the account for a tenant/integration pair
func (r *GormIntegrationAccountRepository) Delete(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND integration_type = ?", tenantID, integrationType.String()).
		Delete(&models.IntegrationAccountModel{}).Error
}

// Ensure GormIntegrationAccountRepository implements AccountProvider
var _ appsync.AccountProvider = (*GormIntegrationAccountRepository)(nil)
