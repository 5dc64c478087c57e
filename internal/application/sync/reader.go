package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
)

// unidentifiedExternalID is the ledger key for records whose external id
// could not be read from the raw payload
const unidentifiedExternalID = "(unidentified)"

// Reader runs the extract-transform-load pipeline for one object type.
//
// Failure scoping is the whole point of this type. A failure on one record
// (single-object extraction, transform, load) becomes a record-level
// reconciliation ledger row and never escapes, so one malformed record
// cannot abort a multi-thousand-record sync. A failure of the extraction
// query itself becomes a system-level ledger row and a *SyncError, the
// hard-stop signal the orchestrator aborts the cycle on.
type Reader struct {
	objectType  integration.ObjectType
	extractor   integration.Extractor
	transformer integration.Transformer
	loader      integration.Loader
	mappings    integration.ExternalMappingRepository
	ledger      integration.ReconciliationErrorRepository
	logger      *zap.Logger
}

// NewReader creates a reader for one object type
func NewReader(
	objectType integration.ObjectType,
	connectors integration.ConnectorSet,
	mappings integration.ExternalMappingRepository,
	ledger integration.ReconciliationErrorRepository,
	logger *zap.Logger,
) *Reader {
	return &Reader{
		objectType:  objectType,
		extractor:   connectors.Extractor,
		transformer: connectors.Transformer,
		loader:      connectors.Loader,
		mappings:    mappings,
		ledger:      ledger,
		logger:      logger.With(zap.String("object_type", objectType.String())),
	}
}

// ObjectType returns the object type this reader syncs
func (r *Reader) ObjectType() integration.ObjectType {
	return r.objectType
}

// Initialize primes the extractor and transformer with tenant credentials
// and profile settings. Must be called before SyncAll or SyncOne.
func (r *Reader) Initialize(ctx context.Context, account integration.Account, profile *integration.SyncProfile) error {
	if err := r.extractor.Initialize(ctx, account, profile); err != nil {
		return integration.NewSyncError(r.objectType, err)
	}
	if err := r.transformer.Initialize(ctx, account, profile); err != nil {
		return integration.NewSyncError(r.objectType, err)
	}
	return nil
}

// SyncAll extracts the full result set for the query and pushes every
// record through syncObject. Extraction failures of the query itself are
// recorded as system-level ledger rows and returned as *SyncError.
func (r *Reader) SyncAll(ctx context.Context, account integration.Account, profile *integration.SyncProfile, query integration.ReadQuery) error {
	// Self-healing: a reader starting over clears its own system rows;
	// they are re-created below if this attempt fails the same way.
	if err := r.ledger.ClearSystem(ctx, profile.ID, r.objectType); err != nil {
		return integration.NewSyncError(r.objectType, err)
	}

	iter, err := r.extractor.GetObjects(ctx, profile, query)
	if err != nil {
		return r.systemFailure(ctx, profile, err)
	}

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return integration.NewSyncError(r.objectType, err)
		}

		raw, ok, err := iter.Next(ctx)
		if err != nil {
			return r.systemFailure(ctx, profile, err)
		}
		if !ok {
			break
		}

		externalID, err := r.extractor.ObjectID(raw)
		if err != nil {
			// No usable external id. A synthetic key keeps the row
			// record-level; an empty external id would collide with the
			// system-level slot and be wiped by the next ClearSystem.
			r.recordFailure(ctx, profile, unidentifiedExternalID, err)
			continue
		}

		r.syncObject(ctx, profile, raw, externalID)
		processed++
	}

	r.logger.Info("reader finished",
		zap.String("tenant_id", profile.TenantID.String()),
		zap.Int("records", processed))
	return nil
}

// SyncOne re-syncs a single external record, the on-demand repair path.
// Every failure here is soft: extraction errors become record-level ledger
// rows instead of propagating.
func (r *Reader) SyncOne(ctx context.Context, account integration.Account, profile *integration.SyncProfile, externalID string) error {
	raw, err := r.extractor.GetObject(ctx, externalID)
	if err != nil {
		r.recordFailure(ctx, profile, externalID, err)
		return nil
	}
	r.syncObject(ctx, profile, raw, externalID)
	return nil
}

// syncObject transforms and loads one record. Filter rejections skip
// silently; transform and load failures become record-level ledger rows.
// The loader clears any earlier ledger row for the same external id inside
// its own transaction, so a reported success is never paired with a stale
// failure row.
func (r *Reader) syncObject(ctx context.Context, profile *integration.SyncProfile, raw integration.RawRecord, externalID string) {
	record, err := r.transformer.Transform(ctx, raw)
	if err != nil {
		r.recordFailure(ctx, profile, externalID, integration.NewTransformError(r.objectType, externalID, err))
		return
	}
	if record == nil {
		r.logger.Debug("record filtered out", zap.String("external_id", externalID))
		return
	}

	if err := r.loader.Load(ctx, record); err != nil {
		r.recordFailure(ctx, profile, externalID, integration.NewLoadError(r.objectType, externalID, err))
	}
}

// recordFailure writes a record-level ledger row, resolving the internal
// id from the mapping table when one exists
func (r *Reader) recordFailure(ctx context.Context, profile *integration.SyncProfile, externalID string, cause error) {
	var internalID *uuid.UUID
	if externalID != "" {
		if id, err := r.mappings.Resolve(ctx, profile.ID, r.objectType, externalID); err == nil {
			internalID = &id
		}
	}

	row := integration.NewRecordError(profile.TenantID, profile.ID, r.objectType, externalID, internalID, cause.Error(), true)
	if err := r.ledger.Record(ctx, row); err != nil {
		r.logger.Error("failed to record reconciliation error",
			zap.String("external_id", externalID),
			zap.Error(err))
	}

	r.logger.Warn("record failed to sync",
		zap.String("external_id", externalID),
		zap.Error(cause))
}

// systemFailure writes a system-level ledger row and returns the hard-stop
// signal for the orchestrator
func (r *Reader) systemFailure(ctx context.Context, profile *integration.SyncProfile, cause error) error {
	row := integration.NewSystemError(profile.TenantID, profile.ID, r.objectType, cause.Error(), true)
	if err := r.ledger.Record(ctx, row); err != nil {
		r.logger.Error("failed to record system-level reconciliation error", zap.Error(err))
	}

	r.logger.Error("extraction failed, aborting cycle",
		zap.String("tenant_id", profile.TenantID.String()),
		zap.Error(cause))
	return integration.NewSyncError(r.objectType, cause)
}
