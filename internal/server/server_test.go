package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/patronproxy/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BackendURL = "http://127.0.0.1:9130"
	cfg.SecretsProvider = "static"
	cfg.SecretsStatic = map[string]string{"diku/user": "pw"}
	cfg.MetricsPort = 0
	return cfg
}

func TestNew(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop(), "test")
	require.NoError(t, err)
	require.NotNil(t, s.Engine())

	require.NoError(t, s.Stop(context.Background()))
}

func TestNew_InvalidSecretsProvider(t *testing.T) {
	cfg := testConfig()
	cfg.SecretsProvider = "bogus"

	_, err := New(cfg, zap.NewNop(), "test")
	require.Error(t, err)
}

func TestHealthRoutes(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop(), "test")
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Readiness fails because no backend listens on the configured address.
	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPatronRoutesMounted(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop(), "test")
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	// Missing API key short-circuits before any backend call, so the route
	// answers 401 even with no backend running.
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/ext-1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access Denied")
}
