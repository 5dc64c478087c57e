package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// SyncCronTriggerConfig
// ---------------------------------------------------------------------------

// SyncCronTriggerConfig holds configuration for the sync cron trigger
type SyncCronTriggerConfig struct {
	// CheckInterval is how often to scan profiles for due syncs
	CheckInterval time.Duration

	// SyncInterval is how often each enabled profile syncs
	SyncInterval time.Duration
}

// DefaultSyncCronTriggerConfig returns default configuration
func DefaultSyncCronTriggerConfig() SyncCronTriggerConfig {
	return SyncCronTriggerConfig{
		CheckInterval: time.Minute,
		SyncInterval:  time.Hour,
	}
}

// ---------------------------------------------------------------------------
// SyncCronTrigger
// ---------------------------------------------------------------------------

// SyncCronTrigger periodically submits ongoing sync jobs for every enabled
// sync profile. The incremental window each job covers comes from the
// profile's read cursor, so the trigger only decides WHEN to run, never
// what range to pull.
type SyncCronTrigger struct {
	config    SyncCronTriggerConfig
	scheduler *SyncScheduler
	profiles  integration.SyncProfileRepository
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last submission per profile to avoid duplicate scheduling
	lastScheduledMu sync.RWMutex
	lastScheduled   map[uuid.UUID]time.Time
}

// NewSyncCronTrigger creates a new sync cron trigger
func NewSyncCronTrigger(
	config SyncCronTriggerConfig,
	scheduler *SyncScheduler,
	profiles integration.SyncProfileRepository,
	logger *zap.Logger,
) *SyncCronTrigger {
	return &SyncCronTrigger{
		config:        config,
		scheduler:     scheduler,
		profiles:      profiles,
		logger:        logger,
		lastScheduled: make(map[uuid.UUID]time.Time),
	}
}

// Start starts the cron trigger
func (c *SyncCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Sync cron trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Duration("sync_interval", c.config.SyncInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *SyncCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks and submits sync jobs
func (c *SyncCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.checkAndSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndSchedule(ctx)
		}
	}
}

// checkAndSchedule submits an ongoing sync job for every profile that is due
func (c *SyncCronTrigger) checkAndSchedule(ctx context.Context) {
	profiles, err := c.profiles.FindEnabled(ctx)
	if err != nil {
		c.logger.Error("Failed to load enabled sync profiles", zap.Error(err))
		return
	}

	if len(profiles) == 0 {
		c.logger.Debug("No enabled sync profiles found")
		return
	}

	now := time.Now()

	for i := range profiles {
		profile := &profiles[i]
		if !c.isDue(profile, now) {
			continue
		}

		job := NewOngoingSyncJob(profile.TenantID, profile.ID, profile.IntegrationType)
		if err := c.scheduler.Submit(job); err != nil {
			c.logger.Error("Failed to submit sync job",
				zap.String("tenant_id", profile.TenantID.String()),
				zap.String("integration_type", profile.IntegrationType.String()),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("Scheduled ongoing sync",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", profile.TenantID.String()),
			zap.String("integration_type", profile.IntegrationType.String()),
		)

		c.updateLastScheduled(profile.ID, now)
	}
}

// isDue reports whether the profile should sync now
func (c *SyncCronTrigger) isDue(profile *integration.SyncProfile, now time.Time) bool {
	c.lastScheduledMu.RLock()
	lastScheduled, exists := c.lastScheduled[profile.ID]
	c.lastScheduledMu.RUnlock()

	if exists && now.Sub(lastScheduled) < c.config.SyncInterval {
		return false
	}

	// After a restart lastScheduled is empty, so fall back to the profile's
	// persisted attempt time to avoid hammering every integration at boot
	if !exists && profile.LastSyncedAt != nil && now.Sub(*profile.LastSyncedAt) < c.config.SyncInterval {
		return false
	}

	return true
}

// updateLastScheduled records when a profile was last submitted
func (c *SyncCronTrigger) updateLastScheduled(profileID uuid.UUID, t time.Time) {
	c.lastScheduledMu.Lock()
	c.lastScheduled[profileID] = t
	c.lastScheduledMu.Unlock()
}

// Stats returns statistics about the trigger for the ops endpoints
func (c *SyncCronTrigger) Stats() map[string]interface{} {
	c.lastScheduledMu.RLock()
	defer c.lastScheduledMu.RUnlock()

	stats := make(map[string]interface{})
	stats["is_running"] = c.isRunning
	stats["check_interval"] = c.config.CheckInterval.String()
	stats["tracked_profiles"] = len(c.lastScheduled)

	lastScheduledTimes := make(map[string]string)
	for id, t := range c.lastScheduled {
		lastScheduledTimes[id.String()] = t.Format(time.RFC3339)
	}
	stats["last_scheduled"] = lastScheduledTimes

	return stats
}
