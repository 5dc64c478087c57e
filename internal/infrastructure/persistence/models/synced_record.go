package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncedRecordModel is the local projection of a canonical record after a
// successful load. The primary key is the internal id minted by the
// external mapping, so re-loading the same external id always lands on the
// same row. Structured fields the loader special-cases (balance, voided,
// settlement splits, installments) are stored alongside the field bag.
type SyncedRecordModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_synced_records_tenant"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index:idx_synced_records_integration"`
	ObjectType    string    `gorm:"type:varchar(16);not null"`
	ExternalID    string    `gorm:"type:varchar(255);not null"`
	Fields        string    `gorm:"type:jsonb;not null;default:'{}'"`
	Balance       string    `gorm:"type:jsonb"`
	Voided        bool      `gorm:"not null;default:false"`
	Splits        string    `gorm:"type:jsonb"`
	Installments  string    `gorm:"type:jsonb"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncedRecordModel) TableName() string {
	return "synced_records"
}
