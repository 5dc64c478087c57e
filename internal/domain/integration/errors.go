package integration

import (
	"errors"
	"fmt"
)

var (
	// Profile errors
	ErrProfileNotFound       = errors.New("integration: sync profile not found")
	ErrProfileNotEnabled     = errors.New("integration: sync profile not enabled")
	ErrInvalidIntegrationType = errors.New("integration: invalid integration type")
	ErrInvalidObjectType     = errors.New("integration: invalid object type")
	ErrAccountNotFound       = errors.New("integration: account not found")

	// Mapping table errors
	ErrExternalMappingNotFound = errors.New("integration: external mapping not found")

	// Lock errors
	ErrSyncAlreadyRunning = errors.New("integration: sync already running for tenant/integration")
)

// ---------------------------------------------------------------------------
// Error taxonomy
//
// Record-level failures (ExtractError from a single-object fetch,
// TransformError, LoadError) are converted into reconciliation ledger rows
// by the reader pipeline and never escape it. SyncError is the query-scoped
// hard stop: it aborts the remaining readers for the cycle and leaves the
// read cursor unadvanced. Anything else is a programmer error.
// ---------------------------------------------------------------------------

// ExtractError represents a failure fetching or parsing a single external record
type ExtractError struct {
	ObjectType ObjectType
	ExternalID string
	Err        error
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("extract %s %s: %v", e.ObjectType, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.ObjectType, e.Err)
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error { return e.Err }

// NewExtractError creates an ExtractError for the given object
func NewExtractError(objectType ObjectType, externalID string, err error) *ExtractError {
	return &ExtractError{ObjectType: objectType, ExternalID: externalID, Err: err}
}

// TransformError represents a mapping or coercion failure for a single record
type TransformError struct {
	ObjectType ObjectType
	ExternalID string
	Err        error
}

// Error implements the error interface
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s %s: %v", e.ObjectType, e.ExternalID, e.Err)
}

// Unwrap returns the underlying error
func (e *TransformError) Unwrap() error { return e.Err }

// NewTransformError creates a TransformError for the given record
func NewTransformError(objectType ObjectType, externalID string, err error) *TransformError {
	return &TransformError{ObjectType: objectType, ExternalID: externalID, Err: err}
}

// LoadError represents a persistence failure for a single record
type LoadError struct {
	ObjectType ObjectType
	ExternalID string
	Err        error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.ObjectType, e.ExternalID, e.Err)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError creates a LoadError for the given record
func NewLoadError(objectType ObjectType, externalID string, err error) *LoadError {
	return &LoadError{ObjectType: objectType, ExternalID: externalID, Err: err}
}

// SyncError represents a query-scoped extraction failure. It is the
// hard-stop signal: the orchestrator aborts the remaining readers for the
// cycle and does not advance the read cursor.
type SyncError struct {
	ObjectType ObjectType
	Err        error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.ObjectType, e.Err)
}

// Unwrap returns the underlying error
func (e *SyncError) Unwrap() error { return e.Err }

// NewSyncError creates a SyncError for the given reader
func NewSyncError(objectType ObjectType, err error) *SyncError {
	return &SyncError{ObjectType: objectType, Err: err}
}

// IsSyncError reports whether err is (or wraps) a query-scoped SyncError
func IsSyncError(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}
