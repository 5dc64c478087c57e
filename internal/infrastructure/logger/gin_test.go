package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newGinFixture(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	return r, logs
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	r, logs := newGinFixture(t)
	r.GET("/sync/status", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/status?page=2", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/sync/status", fields["path"])
	assert.Equal(t, "page=2", fields["query"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestGinMiddlewareWarnsOnClientError(t *testing.T) {
	r, logs := newGinFixture(t)
	r.GET("/missing", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestGinMiddlewareErrorsOnServerError(t *testing.T) {
	r, logs := newGinFixture(t)
	r.GET("/broken", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestGinMiddlewareCarriesRequestAndTenantID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	// Mimic the RequestID middleware running first
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-77")
		c.Next()
	})
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/sync/run", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/sync/run", nil)
	req.Header.Set("X-Tenant-ID", "tenant-12")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-77", fields["request_id"])
	assert.Equal(t, "tenant-12", fields["tenant_id"])
}

func TestGinMiddlewarePropagatesLoggerThroughRequestContext(t *testing.T) {
	r, _ := newGinFixture(t)

	var recovered *zap.Logger
	r.GET("/deep", func(c *gin.Context) {
		// What the sync pipeline below the HTTP layer sees
		recovered = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deep", nil))

	require.NotNil(t, recovered)
	assert.NotEqual(t, zap.NewNop(), recovered)
}

func TestGetGinLoggerInsideRequest(t *testing.T) {
	r, _ := newGinFixture(t)

	var fromGin *zap.Logger
	r.GET("/handler", func(c *gin.Context) {
		fromGin = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/handler", nil))
	require.NotNil(t, fromGin)
}

func TestGetGinLoggerOutsideRequestIsNop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	l := GetGinLogger(c)
	require.NotNil(t, l)
	l.Info("safe to use")
}

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) {
		panic("connector blew up")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Panic recovered", entries[0].Message)
}
