package dto

import "net/http"

// Error codes returned by the sync API. Handlers pass these to
// NewErrorResponse; clients switch on the code, not the message.
const (
	// ErrCodeInvalidRequest is used for malformed input (bad ids, bad bodies)
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	// ErrCodeInvalidObjectType is used when the object type path segment is unknown
	ErrCodeInvalidObjectType = "INVALID_OBJECT_TYPE"
	// ErrCodeNotFound is used when a sync profile or job is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeQueueFull is used when the sync job queue rejects a submission
	ErrCodeQueueFull = "QUEUE_FULL"
	// ErrCodeSchedulerUnavailable is used when the scheduler is not running
	ErrCodeSchedulerUnavailable = "SCHEDULER_UNAVAILABLE"
	// ErrCodeRateLimited is used when the caller exceeds the request rate
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeRequestTooLarge is used when the request body exceeds the body limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInvalidRequest:       http.StatusBadRequest,
	ErrCodeInvalidObjectType:    http.StatusBadRequest,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeInternal:             http.StatusInternalServerError,
	ErrCodeQueueFull:            http.StatusServiceUnavailable,
	ErrCodeSchedulerUnavailable: http.StatusServiceUnavailable,
	ErrCodeRateLimited:          http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:      http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
