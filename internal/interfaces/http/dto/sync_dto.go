package dto

import "time"

// BackfillRequest asks for a historical sync from a given date
type BackfillRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
}

// SyncJobResponse describes a submitted or completed sync job
type SyncJobResponse struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	ProfileID       string     `json:"profile_id"`
	IntegrationType string     `json:"integration_type"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	Error           string     `json:"error,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// SyncStatusResponse describes a profile's sync state
type SyncStatusResponse struct {
	ProfileID       string     `json:"profile_id"`
	IntegrationType string     `json:"integration_type"`
	Enabled         bool       `json:"enabled"`
	Message         string     `json:"message,omitempty"`
	ReadCursor      *time.Time `json:"read_cursor,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	ErrorCount      int64      `json:"error_count"`
}

// ReconciliationErrorResponse is one ledger row
type ReconciliationErrorResponse struct {
	ID          string    `json:"id"`
	ObjectType  string    `json:"object_type"`
	ExternalID  string    `json:"external_id,omitempty"`
	InternalID  string    `json:"internal_id,omitempty"`
	Message     string    `json:"message"`
	Retryable   bool      `json:"retryable"`
	SystemLevel bool      `json:"system_level"`
	OccurredAt  time.Time `json:"occurred_at"`
}
