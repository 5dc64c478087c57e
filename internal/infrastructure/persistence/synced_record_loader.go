package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared/valueobject"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

// GormSyncedRecordLoader implements the Loader port against the local
// synced_records table. Load is idempotent: the external mapping mints the
// internal id on first sight, and every later load of the same external id
// upserts the same row. Deleted records remove both the row and the
// mapping; voided invoices and credit notes keep the row and flag it.
//
// Load also clears the record-level reconciliation ledger row for the
// external id, in the same transaction as the write. Either both commit or
// neither does, so the ledger can never report a failure for a record whose
// latest load succeeded.
type GormSyncedRecordLoader struct {
	db       *gorm.DB
	mappings integration.ExternalMappingRepository
	profiles integration.SyncProfileRepository
	logger   *zap.Logger

	mu      sync.RWMutex
	tenants map[uuid.UUID]uuid.UUID
}

// NewGormSyncedRecordLoader creates a new GormSyncedRecordLoader
func NewGormSyncedRecordLoader(
	db *gorm.DB,
	mappings integration.ExternalMappingRepository,
	profiles integration.SyncProfileRepository,
	logger *zap.Logger,
) *GormSyncedRecordLoader {
	return &GormSyncedRecordLoader{
		db:       db,
		mappings: mappings,
		profiles: profiles,
		logger:   logger,
		tenants:  make(map[uuid.UUID]uuid.UUID),
	}
}

type recordShape struct {
	integrationID uuid.UUID
	deleted       bool
	voided        bool
	balance       *valueobject.Money
	splits        []integration.PaymentSplit
	installments  []integration.InvoiceInstallment
}

func describeRecord(record integration.Record) (recordShape, error) {
	switch r := record.(type) {
	case *integration.Customer:
		return recordShape{integrationID: r.IntegrationID, deleted: r.Deleted}, nil
	case *integration.Invoice:
		return recordShape{
			integrationID: r.IntegrationID,
			deleted:       r.Deleted,
			voided:        r.Voided,
			balance:       r.Balance,
			installments:  r.Installments,
		}, nil
	case *integration.CreditNote:
		return recordShape{integrationID: r.IntegrationID, deleted: r.Deleted, voided: r.Voided}, nil
	case *integration.Payment:
		return recordShape{integrationID: r.IntegrationID, deleted: r.Deleted, splits: r.AppliedTo}, nil
	default:
		return recordShape{}, fmt.Errorf("persistence: unsupported record type %T", record)
	}
}

// Load persists the canonical record
func (l *GormSyncedRecordLoader) Load(ctx context.Context, record integration.Record) error {
	shape, err := describeRecord(record)
	if err != nil {
		return err
	}

	if shape.deleted {
		return l.remove(ctx, shape.integrationID, record)
	}

	tenantID, err := l.tenantFor(ctx, shape.integrationID)
	if err != nil {
		return err
	}

	internalID, err := l.resolveInternalID(ctx, tenantID, shape.integrationID, record)
	if err != nil {
		return err
	}

	model, err := buildSyncedRecordModel(internalID, tenantID, shape, record)
	if err != nil {
		return err
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"fields", "balance", "voided", "splits", "installments", "updated_at",
				}),
			}).
			Create(model).Error; err != nil {
			return err
		}
		return clearLedgerRow(tx, shape.integrationID, record)
	})
}

// remove deletes the local row, the mapping and any ledger row, all in one
// transaction. A delete for a record that was never synced is a no-op.
func (l *GormSyncedRecordLoader) remove(ctx context.Context, integrationID uuid.UUID, record integration.Record) error {
	mapping, err := l.mappings.Find(ctx, integrationID, record.Object(), record.External())
	if err != nil {
		if errors.Is(err, integration.ErrExternalMappingNotFound) {
			return nil
		}
		return err
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Delete(&models.SyncedRecordModel{}, "id = ?", mapping.InternalID).Error; err != nil {
			return err
		}
		if err := tx.
			Delete(&models.ExternalMappingModel{},
				"object_type = ? AND internal_id = ?",
				record.Object().String(), mapping.InternalID).Error; err != nil {
			return err
		}
		return clearLedgerRow(tx, integrationID, record)
	})
}

// clearLedgerRow deletes the record-level reconciliation row for the
// record's external id. Runs inside the caller's transaction.
func clearLedgerRow(tx *gorm.DB, integrationID uuid.UUID, record integration.Record) error {
	return tx.
		Delete(&models.ReconciliationErrorModel{},
			"integration_id = ? AND object_type = ? AND external_id = ?",
			integrationID, record.Object().String(), record.External()).Error
}

// resolveInternalID resolves or mints the internal id through the mapping
// table. The upsert is insert-or-get, so concurrent loads of the same
// external id converge on one id.
func (l *GormSyncedRecordLoader) resolveInternalID(ctx context.Context, tenantID, integrationID uuid.UUID, record integration.Record) (uuid.UUID, error) {
	candidate, err := integration.NewExternalMapping(tenantID, integrationID, record.Object(), record.External(), uuid.New())
	if err != nil {
		return uuid.Nil, err
	}

	stored, err := l.mappings.Upsert(ctx, candidate)
	if err != nil {
		return uuid.Nil, err
	}
	return stored.InternalID, nil
}

// tenantFor resolves the owning tenant of a sync profile, cached for the
// lifetime of the loader.
func (l *GormSyncedRecordLoader) tenantFor(ctx context.Context, integrationID uuid.UUID) (uuid.UUID, error) {
	l.mu.RLock()
	tenantID, ok := l.tenants[integrationID]
	l.mu.RUnlock()
	if ok {
		return tenantID, nil
	}

	profile, err := l.profiles.FindByID(ctx, integrationID)
	if err != nil {
		return uuid.Nil, err
	}

	l.mu.Lock()
	l.tenants[integrationID] = profile.TenantID
	l.mu.Unlock()
	return profile.TenantID, nil
}

func buildSyncedRecordModel(internalID, tenantID uuid.UUID, shape recordShape, record integration.Record) (*models.SyncedRecordModel, error) {
	fields, err := json.Marshal(record.Fields())
	if err != nil {
		return nil, fmt.Errorf("persistence: marshal fields for %s %s: %w", record.Object(), record.External(), err)
	}

	now := time.Now()
	model := &models.SyncedRecordModel{
		ID:            internalID,
		TenantID:      tenantID,
		IntegrationID: shape.integrationID,
		ObjectType:    record.Object().String(),
		ExternalID:    record.External(),
		Fields:        string(fields),
		Voided:        shape.voided,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if shape.balance != nil {
		data, err := json.Marshal(shape.balance)
		if err != nil {
			return nil, err
		}
		model.Balance = string(data)
	}
	if len(shape.splits) > 0 {
		data, err := json.Marshal(splitRows(shape.splits))
		if err != nil {
			return nil, err
		}
		model.Splits = string(data)
	}
	if len(shape.installments) > 0 {
		data, err := json.Marshal(installmentRows(shape.installments))
		if err != nil {
			return nil, err
		}
		model.Installments = string(data)
	}

	return model, nil
}

type splitRow struct {
	InvoiceExternalID string            `json:"invoice_external_id"`
	Source            string            `json:"source"`
	CreditExternalID  string            `json:"credit_external_id,omitempty"`
	Amount            valueobject.Money `json:"amount"`
}

func splitRows(splits []integration.PaymentSplit) []splitRow {
	rows := make([]splitRow, len(splits))
	for i, s := range splits {
		rows[i] = splitRow{
			InvoiceExternalID: s.InvoiceExternalID,
			Source:            string(s.Source),
			CreditExternalID:  s.CreditExternalID,
			Amount:            s.Amount,
		}
	}
	return rows
}

type installmentRow struct {
	Sequence int               `json:"sequence"`
	DueAt    time.Time         `json:"due_at"`
	Amount   valueobject.Money `json:"amount"`
}

func installmentRows(installments []integration.InvoiceInstallment) []installmentRow {
	rows := make([]installmentRow, len(installments))
	for i, in := range installments {
		rows[i] = installmentRow{Sequence: in.Sequence, DueAt: in.DueAt, Amount: in.Amount}
	}
	return rows
}

// Ensure GormSyncedRecordLoader implements Loader
var _ integration.Loader = (*GormSyncedRecordLoader)(nil)
