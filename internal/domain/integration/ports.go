package integration

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Collaborator ports
//
// The engine depends only on these three interfaces; the concrete vendor
// adapters (Intacct, QuickBooks, NetSuite, Xero, Sage Accounting, Business
// Central, FreshBooks) live in the infrastructure layer and are selected
// once at job start through the registry.
// ---------------------------------------------------------------------------

// Account carries the tenant identity and platform credentials handed to
// extractors and transformers at initialization
type Account struct {
	// TenantID is the tenant the sync runs for
	TenantID uuid.UUID
	// Name is the tenant's display name, used in log and status output
	Name string
	// Credentials holds the platform auth material keyed by field name
	Credentials map[string]string
}

// RawRecord is one record as returned by the external platform, before
// transformation. The concrete shape depends on the extractor: a decoded
// JSON document, a parsed markup node, or an internal model.
type RawRecord any

// RecordIterator is a lazy, finite sequence of raw records. It must be
// restartable by re-issuing the query and must not buffer the full result
// set in memory.
type RecordIterator interface {
	// Next returns the next record. ok is false when the sequence is
	// exhausted. A non-nil error is query-scoped and terminal for the
	// iterator.
	Next(ctx context.Context) (record RawRecord, ok bool, err error)
}

// Extractor pulls raw records for one object type from the external
// platform. Implementations may return *ExtractError for single-record
// failures and *SyncError for query-scoped failures.
type Extractor interface {
	// Initialize primes the extractor with tenant credentials and profile
	// settings. Must be called before any other method.
	Initialize(ctx context.Context, account Account, profile *SyncProfile) error

	// GetObjects returns a lazy iterator over the records matching the query
	GetObjects(ctx context.Context, profile *SyncProfile, query ReadQuery) (RecordIterator, error)

	// GetObject fetches a single record by external id
	GetObject(ctx context.Context, externalID string) (RawRecord, error)

	// ObjectID returns the external id carried by a raw record
	ObjectID(record RawRecord) (string, error)
}

// Transformer converts one raw record into a canonical record. A nil
// record with a nil error means the record was rejected by a filter and
// must be skipped silently.
type Transformer interface {
	// Initialize primes the transformer with tenant config
	Initialize(ctx context.Context, account Account, profile *SyncProfile) error

	// Transform maps the raw record to its canonical form
	Transform(ctx context.Context, record RawRecord) (Record, error)
}

// Loader persists a canonical record. Load must be idempotent under
// at-least-once redelivery of the same external id: it resolves or creates
// the external mapping row and upserts the internal entity. Deleted and
// voided records are special-cased (delete vs. soft-void vs. upsert).
type Loader interface {
	// Load persists the record and clears any record-level reconciliation
	// ledger row for its external id, atomically. A nil return means both
	// took effect.
	Load(ctx context.Context, record Record) error
}

// ConnectorSet bundles the three collaborators for one object type
type ConnectorSet struct {
	Extractor   Extractor
	Transformer Transformer
	Loader      Loader
}

// ConnectorRegistry resolves the collaborator set for an integration type
// and object type. Selected once at job start; the engine never depends on
// a concrete vendor adapter.
type ConnectorRegistry interface {
	// Connectors returns the set for the given integration and object type
	Connectors(integrationType IntegrationType, objectType ObjectType) (ConnectorSet, error)

	// SupportedObjects returns the object types the integration can sync
	SupportedObjects(integrationType IntegrationType) []ObjectType
}
