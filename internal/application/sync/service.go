package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
)

// AccountProvider resolves the tenant identity and platform credentials a
// sync runs under
type AccountProvider interface {
	// Account returns the account for the tenant/integration pair
	Account(ctx context.Context, tenantID uuid.UUID, integrationType integration.IntegrationType) (integration.Account, error)
}

// Service is the application entry point for running syncs. It loads the
// profile, resolves the vendor connector set through the registry, builds
// one reader per enabled object type and hands the cycle to the
// orchestrator.
type Service struct {
	profiles     integration.SyncProfileRepository
	registry     integration.ConnectorRegistry
	mappings     integration.ExternalMappingRepository
	ledger       integration.ReconciliationErrorRepository
	accounts     AccountProvider
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewService creates a sync service
func NewService(
	profiles integration.SyncProfileRepository,
	registry integration.ConnectorRegistry,
	mappings integration.ExternalMappingRepository,
	ledger integration.ReconciliationErrorRepository,
	accounts AccountProvider,
	orchestrator *Orchestrator,
	logger *zap.Logger,
) *Service {
	return &Service{
		profiles:     profiles,
		registry:     registry,
		mappings:     mappings,
		ledger:       ledger,
		accounts:     accounts,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// SyncOngoing runs an incremental sync for the profile, pulling changes
// since the read cursor
func (s *Service) SyncOngoing(ctx context.Context, profileID uuid.UUID) error {
	profile, account, err := s.load(ctx, profileID)
	if err != nil {
		return err
	}

	readers, err := s.buildReaders(profile)
	if err != nil {
		return err
	}

	return s.orchestrator.SyncOngoing(ctx, account, profile, readers)
}

// SyncHistorical runs a backfill from startDate. The read cursor is left
// untouched regardless of outcome.
func (s *Service) SyncHistorical(ctx context.Context, profileID uuid.UUID, startDate time.Time) error {
	profile, account, err := s.load(ctx, profileID)
	if err != nil {
		return err
	}

	readers, err := s.buildReaders(profile)
	if err != nil {
		return err
	}

	return s.orchestrator.SyncHistorical(ctx, account, profile, readers, integration.NewHistoricalQuery(startDate, startDate))
}

// SyncOne re-syncs a single record by external id
func (s *Service) SyncOne(ctx context.Context, profileID uuid.UUID, objectType integration.ObjectType, externalID string) error {
	if !objectType.IsValid() {
		return integration.ErrInvalidObjectType
	}

	profile, account, err := s.load(ctx, profileID)
	if err != nil {
		return err
	}

	set, err := s.registry.Connectors(profile.IntegrationType, objectType)
	if err != nil {
		return err
	}

	reader := NewReader(objectType, set, s.mappings, s.ledger, s.logger)
	return s.orchestrator.SyncOne(ctx, account, profile, reader, externalID)
}

// load fetches the profile and the account it runs under
func (s *Service) load(ctx context.Context, profileID uuid.UUID) (*integration.SyncProfile, integration.Account, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return nil, integration.Account{}, err
	}

	account, err := s.accounts.Account(ctx, profile.TenantID, profile.IntegrationType)
	if err != nil {
		return nil, integration.Account{}, err
	}

	return profile, account, nil
}

// buildReaders assembles one reader per object type the integration
// supports, in the fixed customer-first order
func (s *Service) buildReaders(profile *integration.SyncProfile) ([]*Reader, error) {
	supported := make(map[integration.ObjectType]bool)
	for _, objectType := range s.registry.SupportedObjects(profile.IntegrationType) {
		supported[objectType] = true
	}

	var readers []*Reader
	for _, objectType := range integration.ReaderOrder() {
		if !supported[objectType] {
			continue
		}
		set, err := s.registry.Connectors(profile.IntegrationType, objectType)
		if err != nil {
			return nil, err
		}
		readers = append(readers, NewReader(objectType, set, s.mappings, s.ledger, s.logger))
	}
	return readers, nil
}
