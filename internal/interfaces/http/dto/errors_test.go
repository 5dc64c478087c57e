package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrCodeInvalidObjectType, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeQueueFull, http.StatusServiceUnavailable},
		{ErrCodeSchedulerUnavailable, http.StatusServiceUnavailable},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestGetHTTPStatus_UnknownCodeDefaultsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_NEW"))
}

func TestEveryCodeHasAMapping(t *testing.T) {
	codes := []string{
		ErrCodeInvalidRequest,
		ErrCodeInvalidObjectType,
		ErrCodeNotFound,
		ErrCodeInternal,
		ErrCodeQueueFull,
		ErrCodeSchedulerUnavailable,
		ErrCodeRateLimited,
		ErrCodeRequestTooLarge,
	}
	for _, code := range codes {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "code %s has no HTTP status mapping", code)
	}
}
