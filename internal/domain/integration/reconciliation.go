package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ReconciliationError
// ---------------------------------------------------------------------------

// ReconciliationError is one row of the reconciliation ledger. The ledger
// reflects the current reconciliation state, not a history: a record-level
// row is removed when the same (objectType, integrationID, externalID)
// later syncs successfully, and system-level rows for a reader are cleared
// at the start of every full sync attempt.
//
// Two flavors exist: system-level (ExternalID empty — a whole-query
// extraction failure) and record-level (ExternalID set).
type ReconciliationError struct {
	// ID is the unique identifier of the ledger row
	ID uuid.UUID
	// TenantID is the tenant this row belongs to
	TenantID uuid.UUID
	// IntegrationID is the sync profile this row belongs to
	IntegrationID uuid.UUID
	// ObjectType is the reader the failure belongs to
	ObjectType ObjectType
	// ExternalID is the failing external record, empty for system-level rows
	ExternalID string
	// InternalID is the mapped internal entity if one exists
	InternalID *uuid.UUID
	// Message is the human-readable failure description
	Message string
	// Retryable indicates whether a later sync can clear the failure
	Retryable bool
	// OccurredAt is when the failure was last observed
	OccurredAt time.Time
}

// IsSystemLevel reports whether this is a whole-query extraction failure
func (e *ReconciliationError) IsSystemLevel() bool {
	return e.ExternalID == ""
}

// NewRecordError creates a record-level ledger row
func NewRecordError(tenantID, integrationID uuid.UUID, objectType ObjectType, externalID string, internalID *uuid.UUID, message string, retryable bool) *ReconciliationError {
	return &ReconciliationError{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		ObjectType:    objectType,
		ExternalID:    externalID,
		InternalID:    internalID,
		Message:       message,
		Retryable:     retryable,
		OccurredAt:    time.Now(),
	}
}

// NewSystemError creates a system-level ledger row
func NewSystemError(tenantID, integrationID uuid.UUID, objectType ObjectType, message string, retryable bool) *ReconciliationError {
	return &ReconciliationError{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		ObjectType:    objectType,
		Message:       message,
		Retryable:     retryable,
		OccurredAt:    time.Now(),
	}
}

// ---------------------------------------------------------------------------
// ReconciliationErrorRepository Interface
// ---------------------------------------------------------------------------

// ReconciliationErrorRepository defines the interface for the ledger.
// Record-level rows are unique per (integration_id, object_type,
// external_id); recording an error for the same key replaces the row.
type ReconciliationErrorRepository interface {
	// Record upserts a ledger row
	Record(ctx context.Context, e *ReconciliationError) error

	// ClearRecord removes the record-level row for an external id, if any
	ClearRecord(ctx context.Context, integrationID uuid.UUID, objectType ObjectType, externalID string) error

	// ClearSystem removes all system-level rows for a reader
	ClearSystem(ctx context.Context, integrationID uuid.UUID, objectType ObjectType) error

	// FindByIntegration lists all ledger rows for an integration
	FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]ReconciliationError, error)

	// FindRecord returns the record-level row for an external id, or nil
	FindRecord(ctx context.Context, integrationID uuid.UUID, objectType ObjectType, externalID string) (*ReconciliationError, error)

	// CountByIntegration counts ledger rows for an integration
	CountByIntegration(ctx context.Context, integrationID uuid.UUID) (int64, error)
}
