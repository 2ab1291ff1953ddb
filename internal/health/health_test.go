package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProbeEngine(c *Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	c.Register(engine)
	return engine
}

func TestLive(t *testing.T) {
	engine := newProbeEngine(NewChecker("1.2.3"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "1.2.3")
}

func TestReady_NoChecks(t *testing.T) {
	engine := newProbeEngine(NewChecker("dev"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, w.Code)
}

func TestReady_CheckPasses(t *testing.T) {
	c := NewChecker("dev")
	c.RegisterCheck("backend", func(ctx context.Context) error { return nil })
	engine := newProbeEngine(c)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backend")
}

func TestReady_CheckFails(t *testing.T) {
	c := NewChecker("dev")
	c.RegisterCheck("backend", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	engine := newProbeEngine(c)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
