package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// registrarFunc lets a plain function act as a RouteRegistrar in tests.
type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouterMountsUnderDefaultVersion(t *testing.T) {
	engine := gin.New()

	NewRouter(engine).
		Register(registrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/sync/status", func(c *gin.Context) {
				c.String(http.StatusOK, "idle")
			})
		})).
		Setup()

	w := get(engine, "/api/v1/sync/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", w.Body.String())
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()

	NewRouter(engine, WithAPIVersion("v2")).
		Register(registrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/sync/status", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		})).
		Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/v2/sync/status").Code)
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/sync/status").Code,
		"the default prefix is not mounted when a version is set")
}

func TestRouterRegistersEveryRegistrar(t *testing.T) {
	engine := gin.New()

	NewRouter(engine).
		Register(registrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/sync/errors", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		})).
		Register(registrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/sync/jobs", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		})).
		Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/sync/errors").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/sync/jobs").Code)
}

func TestRouterWithoutRegistrars(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Setup()

	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/anything").Code)
}
