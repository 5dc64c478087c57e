package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appsync "github.com/booksync/backend/internal/application/sync"
	"github.com/booksync/backend/internal/infrastructure/telemetry"
)

// OrchestratedSyncExecutor runs sync jobs through the application sync
// service. The job's IntegrationID is the sync profile id.
type OrchestratedSyncExecutor struct {
	service *appsync.Service
	metrics *telemetry.SyncMetrics
	logger  *zap.Logger
}

// NewOrchestratedSyncExecutor creates an executor backed by the sync service
func NewOrchestratedSyncExecutor(service *appsync.Service, logger *zap.Logger) *OrchestratedSyncExecutor {
	return &OrchestratedSyncExecutor{
		service: service,
		logger:  logger,
	}
}

// WithMetrics attaches cycle metrics recording to the executor
func (e *OrchestratedSyncExecutor) WithMetrics(metrics *telemetry.SyncMetrics) *OrchestratedSyncExecutor {
	e.metrics = metrics
	return e
}

// Execute dispatches the job to the matching sync entry point
func (e *OrchestratedSyncExecutor) Execute(ctx context.Context, job *SyncJob) error {
	start := time.Now()
	err := e.dispatch(ctx, job)
	if e.metrics != nil {
		e.metrics.RecordCycle(ctx, string(job.IntegrationType), time.Since(start), err == nil)
	}
	return err
}

func (e *OrchestratedSyncExecutor) dispatch(ctx context.Context, job *SyncJob) error {
	switch job.Kind {
	case SyncJobKindOngoing:
		return e.service.SyncOngoing(ctx, job.IntegrationID)
	case SyncJobKindHistorical:
		if job.StartDate == nil {
			return errors.New("historical sync job has no start date")
		}
		return e.service.SyncHistorical(ctx, job.IntegrationID, *job.StartDate)
	case SyncJobKindSingleObject:
		return e.service.SyncOne(ctx, job.IntegrationID, job.ObjectType, job.ExternalID)
	default:
		return errors.New("unknown sync job kind: " + string(job.Kind))
	}
}

// Ensure OrchestratedSyncExecutor implements SyncExecutor
var _ SyncExecutor = (*OrchestratedSyncExecutor)(nil)
