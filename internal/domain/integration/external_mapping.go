package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ExternalMapping
// ---------------------------------------------------------------------------

// ExternalMapping links an external record id to the internal entity it
// resolved to. It is the idempotency key of the engine: re-processing the
// same external id must resolve to the same internal record. Rows are
// created on first successful load and deleted only with the owning
// internal record.
type ExternalMapping struct {
	// ID is the unique identifier of the mapping row
	ID uuid.UUID
	// TenantID is the tenant this mapping belongs to
	TenantID uuid.UUID
	// IntegrationID is the sync profile this mapping belongs to
	IntegrationID uuid.UUID
	// ObjectType is the kind of object mapped
	ObjectType ObjectType
	// ExternalID is the record's id on the external platform
	ExternalID string
	// InternalID is the internal entity the external record resolved to
	InternalID uuid.UUID
	// CreatedAt is when the mapping was first established
	CreatedAt time.Time
}

// NewExternalMapping creates a mapping row
func NewExternalMapping(tenantID, integrationID uuid.UUID, objectType ObjectType, externalID string, internalID uuid.UUID) (*ExternalMapping, error) {
	if !objectType.IsValid() {
		return nil, ErrInvalidObjectType
	}
	if externalID == "" || internalID == uuid.Nil {
		return nil, ErrExternalMappingNotFound
	}
	return &ExternalMapping{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		ObjectType:    objectType,
		ExternalID:    externalID,
		InternalID:    internalID,
		CreatedAt:     time.Now(),
	}, nil
}

// ---------------------------------------------------------------------------
// ExternalMappingRepository Interface
// ---------------------------------------------------------------------------

// ExternalMappingRepository defines the interface for the mapping table.
// Upsert must be atomic (insert-or-get under the unique constraint on
// (external_id, integration_id) per object-type table) so that concurrent
// record processing can never create duplicate internal records for the
// same external id.
type ExternalMappingRepository interface {
	// Upsert inserts the mapping if absent and returns the stored row.
	// When a row already exists for (externalID, integrationID, objectType)
	// the existing row is returned unchanged.
	Upsert(ctx context.Context, mapping *ExternalMapping) (*ExternalMapping, error)

	// Resolve returns the internal id for an external id, or
	// ErrExternalMappingNotFound
	Resolve(ctx context.Context, integrationID uuid.UUID, objectType ObjectType, externalID string) (uuid.UUID, error)

	// Find returns the mapping row, or ErrExternalMappingNotFound
	Find(ctx context.Context, integrationID uuid.UUID, objectType ObjectType, externalID string) (*ExternalMapping, error)

	// DeleteByInternalID removes the mapping when the owning internal
	// record is deleted
	DeleteByInternalID(ctx context.Context, objectType ObjectType, internalID uuid.UUID) error
}
