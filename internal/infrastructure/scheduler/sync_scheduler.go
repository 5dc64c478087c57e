package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/synclock"
)

// ---------------------------------------------------------------------------
// Sync Job Types
// ---------------------------------------------------------------------------

// SyncJobKind selects the sync entry point a job runs
type SyncJobKind string

const (
	// SyncJobKindOngoing is an incremental sync from the read cursor
	SyncJobKindOngoing SyncJobKind = "ONGOING"
	// SyncJobKindHistorical is an explicitly bounded backfill
	SyncJobKindHistorical SyncJobKind = "HISTORICAL"
	// SyncJobKindSingleObject is an on-demand single-record repair
	SyncJobKindSingleObject SyncJobKind = "SINGLE_OBJECT"
)

// SyncJobStatus represents the status of a sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusDelayed SyncJobStatus = "DELAYED"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob represents one scheduled sync invocation
type SyncJob struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	IntegrationID   uuid.UUID
	IntegrationType integration.IntegrationType
	Kind            SyncJobKind

	// StartDate bounds historical backfills
	StartDate *time.Time
	// ObjectType and ExternalID target single-object repairs
	ObjectType integration.ObjectType
	ExternalID string

	Status      SyncJobStatus
	Error       string
	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	// NotBefore delays execution after lock contention
	NotBefore *time.Time
	Delays    int
}

// NewOngoingSyncJob creates an incremental sync job
func NewOngoingSyncJob(tenantID, integrationID uuid.UUID, integrationType integration.IntegrationType) *SyncJob {
	return &SyncJob{
		ID:              uuid.New(),
		TenantID:        tenantID,
		IntegrationID:   integrationID,
		IntegrationType: integrationType,
		Kind:            SyncJobKindOngoing,
		Status:          SyncJobStatusPending,
		SubmittedAt:     time.Now(),
	}
}

// NewHistoricalSyncJob creates a backfill job bounded below by startDate
func NewHistoricalSyncJob(tenantID, integrationID uuid.UUID, integrationType integration.IntegrationType, startDate time.Time) *SyncJob {
	job := NewOngoingSyncJob(tenantID, integrationID, integrationType)
	job.Kind = SyncJobKindHistorical
	job.StartDate = &startDate
	return job
}

// NewSingleObjectSyncJob creates an on-demand repair job for one record
func NewSingleObjectSyncJob(tenantID, integrationID uuid.UUID, integrationType integration.IntegrationType, objectType integration.ObjectType, externalID string) *SyncJob {
	job := NewOngoingSyncJob(tenantID, integrationID, integrationType)
	job.Kind = SyncJobKindSingleObject
	job.ObjectType = objectType
	job.ExternalID = externalID
	return job
}

// ConcurrencyKey returns the single-flight lock key for this job
func (j *SyncJob) ConcurrencyKey() string {
	return synclock.Key(j.TenantID, j.IntegrationID)
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *SyncJob) Complete() {
	now := time.Now()
	j.Status = SyncJobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Delay postpones the job after lock contention
func (j *SyncJob) Delay(by time.Duration) {
	notBefore := time.Now().Add(by)
	j.Status = SyncJobStatusDelayed
	j.NotBefore = &notBefore
	j.Delays++
}

// ---------------------------------------------------------------------------
// SyncExecutor Interface
// ---------------------------------------------------------------------------

// SyncExecutor runs the sync a job describes. Wired to the orchestrator's
// entry points at composition time.
type SyncExecutor interface {
	// Execute runs the sync for the job
	Execute(ctx context.Context, job *SyncJob) error
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Workers is the size of the worker pool
	Workers int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// LockTTL is the single-flight lock expiry (the stuck-job safety valve)
	LockTTL time.Duration
	// ContentionDelay is how long a job waits before retrying when a sync
	// for the same tenant/integration is already in flight
	ContentionDelay time.Duration
	// QueueSize is the job channel capacity
	QueueSize int
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:         true,
		Workers:         5,
		JobTimeout:      30 * time.Minute,
		LockTTL:         synclock.DefaultTTL,
		ContentionDelay: 1 * time.Minute,
		QueueSize:       100,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.LockTTL <= 0 {
		return ErrInvalidConfig
	}
	if c.ContentionDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler dispatches sync jobs to a worker pool while holding the
// per tenant/integration single-flight lock. A job submitted while a sync
// for the same pair is in flight is delayed and requeued, never dropped.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	executor SyncExecutor
	lock     synclock.SyncLock
	logger   *zap.Logger

	jobs      chan *SyncJob
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, executor SyncExecutor, lock synclock.SyncLock, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config:     config,
		executor:   executor,
		lock:       lock,
		logger:     logger,
		jobs:       make(chan *SyncJob, config.QueueSize),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the worker pool
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(s.ctx, i)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Duration("lock_ttl", s.config.LockTTL),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.drainPending()
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// drainPending moves jobs still queued at shutdown into history as failed.
// The queue channel is never closed: delay timers and late submitters may
// still hold a reference, and a send on a closed channel would panic.
func (s *SyncScheduler) drainPending() {
	for {
		select {
		case job := <-s.jobs:
			job.Fail("scheduler stopped before the job ran")
			s.logger.Warn("Sync job not run before shutdown",
				zap.String("job_id", job.ID.String()),
				zap.String("kind", string(job.Kind)))
			s.addToHistory(job)
		default:
			return
		}
	}
}

// Submit submits a job for execution. The send happens under the run
// mutex so it cannot interleave with Stop.
func (s *SyncScheduler) Submit(job *SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("kind", string(job.Kind)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker processes jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob acquires the single-flight lock and runs one job
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	if job.NotBefore != nil && time.Now().Before(*job.NotBefore) {
		s.requeueAfter(job, time.Until(*job.NotBefore))
		return
	}

	key := job.ConcurrencyKey()
	acquired, err := s.lock.Acquire(ctx, key, s.config.LockTTL)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Failed to acquire sync lock",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
		s.addToHistory(job)
		return
	}
	if !acquired {
		// Another sync for this tenant/integration is in flight: delay and
		// retry instead of rejecting
		job.Delay(s.config.ContentionDelay)
		s.logger.Info("Sync already running, delaying job",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("delays", job.Delays))
		s.requeueAfter(job, s.config.ContentionDelay)
		return
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Failed to release sync lock",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
	}()

	job.Start()
	s.logger.Info("Processing sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("integration_type", job.IntegrationType.String()),
		zap.String("kind", string(job.Kind)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		s.logger.Error("Sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err))
	} else {
		job.Complete()
		s.logger.Info("Sync job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()))
	}

	s.addToHistory(job)
}

// requeueAfter puts the job back on the queue once its delay elapses. The
// timer callback re-checks the running flag under the mutex: a timer that
// fires after Stop records the job in history as failed rather than
// sending, so a delayed job is never dropped without trace.
func (s *SyncScheduler) requeueAfter(job *SyncJob, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isRunning {
			job.Fail("scheduler stopped while the job was delayed")
			s.logger.Warn("Delayed sync job not run before shutdown",
				zap.String("job_id", job.ID.String()),
				zap.Int("delays", job.Delays))
			s.addToHistory(job)
			return
		}
		select {
		case s.jobs <- job:
		default:
			job.Fail("job queue full on requeue")
			s.addToHistory(job)
		}
	})
}

// addToHistory adds a completed job to the in-memory history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// History returns recent job history, newest first
func (s *SyncScheduler) History(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}
