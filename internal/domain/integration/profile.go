package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncProfile
// ---------------------------------------------------------------------------

// SyncProfile holds the per tenant+integration sync state and settings.
// ReadCursor is the last fully-synced point and is advanced only by the
// orchestrator after every reader succeeded; LastSyncedAt records the last
// attempt regardless of outcome.
type SyncProfile struct {
	// ID is the unique identifier of the profile
	ID uuid.UUID
	// TenantID is the tenant this profile belongs to
	TenantID uuid.UUID
	// IntegrationType identifies the external platform
	IntegrationType IntegrationType
	// Enabled indicates whether syncing is active for this profile
	Enabled bool
	// ReadCursor is the last fully-synced point, nil before the first success
	ReadCursor *time.Time
	// LastSyncedAt is when a sync was last attempted, nil before the first attempt
	LastSyncedAt *time.Time
	// InvoiceStartDate bounds how far back invoices are pulled, nil for no bound
	InvoiceStartDate *time.Time
	// CustomerImportMode controls which customers are imported
	CustomerImportMode CustomerImportMode
	// ImportDrafts indicates whether draft documents are imported
	ImportDrafts bool
	// LocationFilters restricts import to the given platform locations
	LocationFilters []string
	// Timezone is the tenant's IANA time zone for date coercion
	Timezone string
	// CreatedAt is when the profile was created
	CreatedAt time.Time
	// UpdatedAt is when the profile was last updated
	UpdatedAt time.Time
}

// NewSyncProfile creates a sync profile with defaults
func NewSyncProfile(tenantID uuid.UUID, integrationType IntegrationType) (*SyncProfile, error) {
	if tenantID == uuid.Nil {
		return nil, ErrProfileNotFound
	}
	if !integrationType.IsValid() {
		return nil, ErrInvalidIntegrationType
	}
	now := time.Now()
	return &SyncProfile{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		IntegrationType:    integrationType,
		Enabled:            true,
		CustomerImportMode: CustomerImportModeAll,
		Timezone:           "UTC",
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// CursorOrCreation returns the read cursor, defaulting to the profile's
// creation time before the first successful sync.
func (p *SyncProfile) CursorOrCreation() time.Time {
	if p.ReadCursor != nil {
		return *p.ReadCursor
	}
	return p.CreatedAt
}

// AdvanceCursor moves the read cursor to the given point. Only the
// orchestrator calls this, and only after a fully successful cycle.
func (p *SyncProfile) AdvanceCursor(to time.Time) {
	t := to
	p.ReadCursor = &t
}

// MarkAttempted records that a sync was attempted at the given time
func (p *SyncProfile) MarkAttempted(at time.Time) {
	t := at
	p.LastSyncedAt = &t
}

// ReaderEnabled reports whether the reader for the given object type is
// enabled by this profile's configuration.
func (p *SyncProfile) ReaderEnabled(objectType ObjectType) bool {
	if objectType == ObjectTypeCustomer {
		return p.CustomerImportMode != CustomerImportModeNone
	}
	return true
}

// Location returns the tenant's time zone, falling back to UTC
func (p *SyncProfile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ---------------------------------------------------------------------------
// SyncProfileRepository Interface
// ---------------------------------------------------------------------------

// SyncProfileRepository defines the interface for persisting sync profiles
type SyncProfileRepository interface {
	// Save creates or updates a profile
	Save(ctx context.Context, profile *SyncProfile) error

	// FindByID finds a profile by id
	FindByID(ctx context.Context, id uuid.UUID) (*SyncProfile, error)

	// FindByTenantAndIntegration finds the profile for a tenant/integration pair
	FindByTenantAndIntegration(ctx context.Context, tenantID uuid.UUID, integrationType IntegrationType) (*SyncProfile, error)

	// FindEnabled finds all enabled profiles
	FindEnabled(ctx context.Context) ([]SyncProfile, error)

	// Delete deletes a profile
	Delete(ctx context.Context, id uuid.UUID) error
}
