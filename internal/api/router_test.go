package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module-registry/module-registry/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig builds a config backed by local storage in a temp dir so the
// full router, including the file-serving route, can be exercised without
// cloud credentials.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://registry.test"
	cfg.Storage.DefaultBackend = "local"
	cfg.Storage.Local.BasePath = t.TempDir()
	cfg.Limits.UploadRequestsPerMinute = 600
	cfg.Limits.UploadBurst = 100
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	router, mock, _ := newTestRouterWithConfig(t)
	return router, mock
}

func newTestRouterWithConfig(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *config.Config) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig(t)
	router, bg := NewRouter(cfg, db)
	t.Cleanup(bg.Shutdown)
	return router, mock, cfg
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "invalid JSON response: %s", w.Body.String())
	return body
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestReadyEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["ready"])
}

func TestVersionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", decodeBody(t, w)["api_version"])
}

func TestServiceDiscovery(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/.well-known/terraform.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://registry.test/v1/", decodeBody(t, w)["modules.v1"])
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
