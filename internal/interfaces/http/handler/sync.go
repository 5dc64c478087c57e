package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/scheduler"
	"github.com/booksync/backend/internal/interfaces/http/dto"
)

// SyncStatusReader exposes the current status message for a profile
type SyncStatusReader interface {
	Status(ctx context.Context, profileID uuid.UUID) (string, error)
}

// SyncHandler exposes the sync engine's operational surface: triggering
// syncs, inspecting status and listing the reconciliation ledger. All
// correctness lives in the layers below; this is a thin translation.
type SyncHandler struct {
	scheduler *scheduler.SyncScheduler
	profiles  integration.SyncProfileRepository
	ledger    integration.ReconciliationErrorRepository
	status    SyncStatusReader
	logger    *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	sched *scheduler.SyncScheduler,
	profiles integration.SyncProfileRepository,
	ledger integration.ReconciliationErrorRepository,
	status SyncStatusReader,
	logger *zap.Logger,
) *SyncHandler {
	return &SyncHandler{
		scheduler: sched,
		profiles:  profiles,
		ledger:    ledger,
		status:    status,
		logger:    logger,
	}
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/profiles/:id/run", h.TriggerOngoing)
		sync.POST("/profiles/:id/backfill", h.TriggerHistorical)
		sync.POST("/profiles/:id/objects/:objectType/:externalId/resync", h.ResyncObject)
		sync.GET("/profiles/:id/status", h.GetStatus)
		sync.GET("/profiles/:id/errors", h.ListErrors)
		sync.GET("/jobs", h.ListJobs)
	}
}

// TriggerOngoing enqueues an incremental sync for the profile
func (h *SyncHandler) TriggerOngoing(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	job := scheduler.NewOngoingSyncJob(profile.TenantID, profile.ID, profile.IntegrationType)
	h.submit(c, job)
}

// TriggerHistorical enqueues a backfill from the requested start date
func (h *SyncHandler) TriggerHistorical(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidRequest, err.Error()))
		return
	}

	job := scheduler.NewHistoricalSyncJob(profile.TenantID, profile.ID, profile.IntegrationType, req.StartDate)
	h.submit(c, job)
}

// ResyncObject enqueues a single-object repair sync
func (h *SyncHandler) ResyncObject(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	objectType := integration.ObjectType(c.Param("objectType"))
	if !objectType.IsValid() {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidObjectType, "unknown object type"))
		return
	}
	externalID := c.Param("externalId")
	if externalID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidRequest, "external id is required"))
		return
	}

	job := scheduler.NewSingleObjectSyncJob(profile.TenantID, profile.ID, profile.IntegrationType, objectType, externalID)
	h.submit(c, job)
}

// GetStatus returns the profile's cursor state and in-flight status message
func (h *SyncHandler) GetStatus(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	message, err := h.status.Status(c.Request.Context(), profile.ID)
	if err != nil {
		h.logger.Warn("failed to read sync status", zap.Error(err))
	}

	errorCount, err := h.ledger.CountByIntegration(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "failed to count reconciliation errors"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SyncStatusResponse{
		ProfileID:       profile.ID.String(),
		IntegrationType: profile.IntegrationType.String(),
		Enabled:         profile.Enabled,
		Message:         message,
		ReadCursor:      profile.ReadCursor,
		LastSyncedAt:    profile.LastSyncedAt,
		ErrorCount:      errorCount,
	}))
}

// ListErrors returns the current reconciliation ledger for the profile,
// paginated newest first
func (h *SyncHandler) ListErrors(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidRequest, err.Error()))
		return
	}

	rows, err := h.ledger.FindByIntegration(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "failed to list reconciliation errors"))
		return
	}

	responses := make([]dto.ReconciliationErrorResponse, len(rows))
	for i, row := range rows {
		resp := dto.ReconciliationErrorResponse{
			ID:          row.ID.String(),
			ObjectType:  row.ObjectType.String(),
			ExternalID:  row.ExternalID,
			Message:     row.Message,
			Retryable:   row.Retryable,
			SystemLevel: row.IsSystemLevel(),
			OccurredAt:  row.OccurredAt,
		}
		if row.InternalID != nil {
			resp.InternalID = row.InternalID.String()
		}
		responses[i] = resp
	}

	total := int64(len(responses))
	start := (req.Page - 1) * req.PageSize
	if start > len(responses) {
		start = len(responses)
	}
	end := start + req.PageSize
	if end > len(responses) {
		end = len(responses)
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(responses[start:end], total, req.Page, req.PageSize))
}

// ListJobs returns recent sync job history, newest first
func (h *SyncHandler) ListJobs(c *gin.Context) {
	jobs := h.scheduler.History(50)
	responses := make([]dto.SyncJobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = jobResponse(job)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(responses))
}

// loadProfile resolves the :id path parameter to a sync profile
func (h *SyncHandler) loadProfile(c *gin.Context) (*integration.SyncProfile, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidRequest, "invalid profile id"))
		return nil, false
	}

	profile, err := h.profiles.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, integration.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "sync profile not found"))
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "failed to load sync profile"))
		return nil, false
	}
	return profile, true
}

// submit enqueues the job and answers 202
func (h *SyncHandler) submit(c *gin.Context, job *scheduler.SyncJob) {
	if err := h.scheduler.Submit(job); err != nil {
		if errors.Is(err, scheduler.ErrJobQueueFull) {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeQueueFull, "sync queue is full, retry later"))
			return
		}
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeSchedulerUnavailable, err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(jobResponse(job)))
}

func jobResponse(job *scheduler.SyncJob) dto.SyncJobResponse {
	return dto.SyncJobResponse{
		ID:              job.ID.String(),
		TenantID:        job.TenantID.String(),
		ProfileID:       job.IntegrationID.String(),
		IntegrationType: job.IntegrationType.String(),
		Kind:            string(job.Kind),
		Status:          string(job.Status),
		Error:           job.Error,
		SubmittedAt:     job.SubmittedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
	}
}
