package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("tenant-a"))
	assert.True(t, rl.Allow("tenant-a"))
	assert.True(t, rl.Allow("tenant-a"))
	assert.False(t, rl.Allow("tenant-a"), "fourth request in the window is rejected")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("tenant-a"))
	assert.False(t, rl.Allow("tenant-a"))
	assert.True(t, rl.Allow("tenant-b"), "one noisy tenant must not starve another")
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.Allow("tenant-a"))
	assert.False(t, rl.Allow("tenant-a"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("tenant-a"), "a new window grants fresh slots")
}

func TestRateLimiterRemaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, rl.Remaining("tenant-a"))
	rl.Allow("tenant-a")
	rl.Allow("tenant-a")
	assert.Equal(t, 3, rl.Remaining("tenant-a"))

	for i := 0; i < 5; i++ {
		rl.Allow("tenant-a")
	}
	assert.Equal(t, 0, rl.Remaining("tenant-a"))
}

func newRateLimitRouter(limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(limit, window)))
	r.POST("/sync/run", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func postRun(r *gin.Engine, tenantID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sync/run", nil)
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	r := newRateLimitRouter(2, time.Minute)

	assert.Equal(t, http.StatusAccepted, postRun(r, "").Code)
	assert.Equal(t, http.StatusAccepted, postRun(r, "").Code)

	w := postRun(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
}

func TestRateLimitMiddlewareSetsHeaders(t *testing.T) {
	r := newRateLimitRouter(10, time.Minute)

	w := postRun(r, "")
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddlewareKeysByTenant(t *testing.T) {
	r := newRateLimitRouter(1, time.Minute)

	assert.Equal(t, http.StatusAccepted, postRun(r, "tenant-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, postRun(r, "tenant-a").Code)
	assert.Equal(t, http.StatusAccepted, postRun(r, "tenant-b").Code,
		"limits are scoped per tenant")
}
