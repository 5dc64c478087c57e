package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/booksync/backend/internal/domain/integration"
)

// SyncProfileModel is the persistence model for the SyncProfile domain entity.
type SyncProfileModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_sync_profiles_tenant_integration,priority:1"`
	IntegrationType    string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_sync_profiles_tenant_integration,priority:2"`
	Enabled            bool       `gorm:"not null;default:true"`
	ReadCursor         *time.Time `gorm:""`
	LastSyncedAt       *time.Time `gorm:""`
	InvoiceStartDate   *time.Time `gorm:""`
	CustomerImportMode string     `gorm:"type:varchar(16);not null;default:'ALL'"`
	ImportDrafts       bool       `gorm:"not null;default:false"`
	LocationFilters    string     `gorm:"type:jsonb;column:location_filters"`
	Timezone           string     `gorm:"type:varchar(64);not null;default:'UTC'"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncProfileModel) TableName() string {
	return "sync_profiles"
}

// ToDomain converts the persistence model to a domain SyncProfile entity.
func (m *SyncProfileModel) ToDomain() *integration.SyncProfile {
	profile := &integration.SyncProfile{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		IntegrationType:    integration.IntegrationType(m.IntegrationType),
		Enabled:            m.Enabled,
		ReadCursor:         m.ReadCursor,
		LastSyncedAt:       m.LastSyncedAt,
		InvoiceStartDate:   m.InvoiceStartDate,
		CustomerImportMode: integration.CustomerImportMode(m.CustomerImportMode),
		ImportDrafts:       m.ImportDrafts,
		Timezone:           m.Timezone,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}

	if m.LocationFilters != "" {
		var filters []string
		if err := json.Unmarshal([]byte(m.LocationFilters), &filters); err == nil {
			profile.LocationFilters = filters
		}
	}

	return profile
}

// FromDomain populates the persistence model from a domain SyncProfile entity.
func (m *SyncProfileModel) FromDomain(p *integration.SyncProfile) {
	m.ID = p.ID
	m.TenantID = p.TenantID
	m.IntegrationType = p.IntegrationType.String()
	m.Enabled = p.Enabled
	m.ReadCursor = p.ReadCursor
	m.LastSyncedAt = p.LastSyncedAt
	m.InvoiceStartDate = p.InvoiceStartDate
	m.CustomerImportMode = p.CustomerImportMode.String()
	m.ImportDrafts = p.ImportDrafts
	m.Timezone = p.Timezone
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt

	if len(p.LocationFilters) > 0 {
		if data, err := json.Marshal(p.LocationFilters); err == nil {
			m.LocationFilters = string(data)
		}
	} else {
		m.LocationFilters = ""
	}
}

// SyncProfileModelFromDomain creates a new persistence model from a domain SyncProfile entity.
func SyncProfileModelFromDomain(p *integration.SyncProfile) *SyncProfileModel {
	m := &SyncProfileModel{}
	m.FromDomain(p)
	return m
}

// ExternalMappingModel is the persistence model for the ExternalMapping
// domain entity. The unique index on (integration_id, object_type,
// external_id) backs the atomic insert-or-get upsert.
type ExternalMappingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_external_mappings_tenant,priority:1"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_external_mappings_identity,priority:1"`
	ObjectType    string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_external_mappings_identity,priority:2"`
	ExternalID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_external_mappings_identity,priority:3"`
	InternalID    uuid.UUID `gorm:"type:uuid;not null;index:idx_external_mappings_internal,priority:1"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExternalMappingModel) TableName() string {
	return "external_mappings"
}

// ToDomain converts the persistence model to a domain ExternalMapping entity.
func (m *ExternalMappingModel) ToDomain() *integration.ExternalMapping {
	return &integration.ExternalMapping{
		ID:            m.ID,
		TenantID:      m.TenantID,
		IntegrationID: m.IntegrationID,
		ObjectType:    integration.ObjectType(m.ObjectType),
		ExternalID:    m.ExternalID,
		InternalID:    m.InternalID,
		CreatedAt:     m.CreatedAt,
	}
}

// ExternalMappingModelFromDomain creates a new persistence model from a domain entity.
func ExternalMappingModelFromDomain(e *integration.ExternalMapping) *ExternalMappingModel {
	return &ExternalMappingModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		IntegrationID: e.IntegrationID,
		ObjectType:    e.ObjectType.String(),
		ExternalID:    e.ExternalID,
		InternalID:    e.InternalID,
		CreatedAt:     e.CreatedAt,
	}
}

// ReconciliationErrorModel is the persistence model for a reconciliation
// ledger row. The unique index makes the ledger current-state: re-recording
// the same (integration, object type, external id) replaces the row, and
// the system-level row shares the index with external_id = ''.
type ReconciliationErrorModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_recon_errors_tenant,priority:1"`
	IntegrationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recon_errors_identity,priority:1"`
	ObjectType    string     `gorm:"type:varchar(16);not null;uniqueIndex:idx_recon_errors_identity,priority:2"`
	ExternalID    string     `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_recon_errors_identity,priority:3"`
	InternalID    *uuid.UUID `gorm:"type:uuid"`
	Message       string     `gorm:"type:text;not null"`
	Retryable     bool       `gorm:"not null;default:true"`
	OccurredAt    time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReconciliationErrorModel) TableName() string {
	return "reconciliation_errors"
}

// ToDomain converts the persistence model to a domain ReconciliationError.
func (m *ReconciliationErrorModel) ToDomain() *integration.ReconciliationError {
	return &integration.ReconciliationError{
		ID:            m.ID,
		TenantID:      m.TenantID,
		IntegrationID: m.IntegrationID,
		ObjectType:    integration.ObjectType(m.ObjectType),
		ExternalID:    m.ExternalID,
		InternalID:    m.InternalID,
		Message:       m.Message,
		Retryable:     m.Retryable,
		OccurredAt:    m.OccurredAt,
	}
}

// ReconciliationErrorModelFromDomain creates a new persistence model from a domain entity.
func ReconciliationErrorModelFromDomain(e *integration.ReconciliationError) *ReconciliationErrorModel {
	return &ReconciliationErrorModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		IntegrationID: e.IntegrationID,
		ObjectType:    e.ObjectType.String(),
		ExternalID:    e.ExternalID,
		InternalID:    e.InternalID,
		Message:       e.Message,
		Retryable:     e.Retryable,
		OccurredAt:    e.OccurredAt,
	}
}
