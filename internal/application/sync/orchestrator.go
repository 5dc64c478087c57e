package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
)

// StatusPublisher is the human-readable "currently syncing" side channel
// polled by the operational UI. Last write wins; it carries no correctness
// weight, so publish failures are logged and ignored.
type StatusPublisher interface {
	// Publish sets the status line for a sync profile
	Publish(ctx context.Context, profileID uuid.UUID, message string) error

	// Clear removes the status line for a sync profile
	Clear(ctx context.Context, profileID uuid.UUID) error
}

// Orchestrator runs a full sync cycle: readers in dependency order, cursor
// bookkeeping, status publication.
//
// The cursor contract: ReadCursor advances to the cycle's start time only
// when every reader succeeded; LastSyncedAt records the attempt regardless.
// A partial failure therefore updates "last attempted" but not "last fully
// synced", and the next ongoing sync re-reads from the old cursor.
type Orchestrator struct {
	profiles integration.SyncProfileRepository
	status   StatusPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	profiles integration.SyncProfileRepository,
	status StatusPublisher,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		profiles: profiles,
		status:   status,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncOngoing runs an incremental sync from the profile's read cursor.
// Readers disabled by profile configuration are skipped; cursor advancement
// is enabled.
func (o *Orchestrator) SyncOngoing(ctx context.Context, account integration.Account, profile *integration.SyncProfile, readers []*Reader) error {
	if !profile.Enabled {
		return integration.ErrProfileNotEnabled
	}

	query := integration.NewOngoingQuery(profile.CursorOrCreation(), profile.InvoiceStartDate)

	enabled := make([]*Reader, 0, len(readers))
	for _, r := range readers {
		if profile.ReaderEnabled(r.ObjectType()) {
			enabled = append(enabled, r)
		}
	}

	return o.run(ctx, account, profile, enabled, query, true)
}

// SyncHistorical runs an explicitly bounded backfill. The cursor never
// advances: backfills overlap the incremental window by construction and
// must not move it.
func (o *Orchestrator) SyncHistorical(ctx context.Context, account integration.Account, profile *integration.SyncProfile, readers []*Reader, query integration.ReadQuery) error {
	if !profile.Enabled {
		return integration.ErrProfileNotEnabled
	}
	return o.run(ctx, account, profile, readers, query, false)
}

// SyncOne repairs a single external record through the given reader.
// Failures are soft (recorded in the ledger by the reader); profile cursor
// state is untouched.
func (o *Orchestrator) SyncOne(ctx context.Context, account integration.Account, profile *integration.SyncProfile, reader *Reader, externalID string) error {
	if err := reader.Initialize(ctx, account, profile); err != nil {
		return err
	}
	return reader.SyncOne(ctx, account, profile, externalID)
}

// run is the shared cycle routine
func (o *Orchestrator) run(ctx context.Context, account integration.Account, profile *integration.SyncProfile, readers []*Reader, query integration.ReadQuery, advanceCursor bool) error {
	start := o.now()

	defer func() {
		if err := o.status.Clear(context.WithoutCancel(ctx), profile.ID); err != nil {
			o.logger.Warn("failed to clear sync status", zap.Error(err))
		}
	}()

	var cycleErr error
	for _, reader := range readers {
		o.publish(ctx, profile, fmt.Sprintf("Syncing %s %ss for %s",
			profile.IntegrationType.DisplayName(), reader.ObjectType(), account.Name))

		if err := reader.Initialize(ctx, account, profile); err != nil {
			cycleErr = err
			break
		}
		if err := reader.SyncAll(ctx, account, profile, query); err != nil {
			cycleErr = err
			break
		}
	}

	// LastSyncedAt is an attempt timestamp and always moves; the cursor is
	// an all-readers-succeeded guarantee and moves only on a clean cycle.
	profile.MarkAttempted(start)
	if cycleErr == nil && advanceCursor {
		profile.AdvanceCursor(start)
	}

	if err := o.profiles.Save(context.WithoutCancel(ctx), profile); err != nil {
		o.logger.Error("failed to persist sync profile state",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err))
		if cycleErr == nil {
			cycleErr = err
		}
	}

	if cycleErr != nil {
		o.logger.Warn("sync cycle aborted",
			zap.String("tenant_id", profile.TenantID.String()),
			zap.String("integration_type", profile.IntegrationType.String()),
			zap.Error(cycleErr))
		return cycleErr
	}

	o.logger.Info("sync cycle complete",
		zap.String("tenant_id", profile.TenantID.String()),
		zap.String("integration_type", profile.IntegrationType.String()),
		zap.Duration("took", o.now().Sub(start)),
		zap.Bool("cursor_advanced", advanceCursor))
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, profile *integration.SyncProfile, message string) {
	if err := o.status.Publish(ctx, profile.ID, message); err != nil {
		o.logger.Warn("failed to publish sync status", zap.Error(err))
	}
}
