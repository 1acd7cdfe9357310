package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresmv/reportpipe/internal/cache"
	"github.com/andresmv/reportpipe/internal/config"
	"github.com/andresmv/reportpipe/internal/render"
	"github.com/andresmv/reportpipe/internal/store"
	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) CreateReport(_ context.Context, _ *models.Report) error {
	return nil
}
func (s *testStore) GetReport(_ context.Context, _ uuid.UUID) (*models.Report, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateReportStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.ReportUpdateOption) error {
	return nil
}

var _ store.Store = (*testStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *testCache) Ping(_ context.Context) error                                     { return c.pingErr }
func (c *testCache) SetReportStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *testCache) GetReportStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}

var _ cache.Cache = (*testCache)(nil)

func localStorage() config.StorageConfig {
	return config.StorageConfig{
		Backend:   "local",
		Prefix:    "reports",
		LocalRoot: "/tmp/reports",
	}
}

func missingRenderer() render.Renderer {
	return render.NewLaTeX("definitely-not-a-real-binary-xyz", time.Second)
}

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{}, localStorage(), missingRenderer())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])

	storage := data["storage"].(map[string]any)
	assert.Equal(t, "local", storage["backend"])
	assert.Equal(t, "reports", storage["prefix"])
	assert.Equal(t, "/tmp/reports", storage["root"])
	assert.Equal(t, false, storage["dual_write"])

	assert.Equal(t, false, data["renderer_available"])
}

func TestHealthHandler_GCSStorageReportsBucket(t *testing.T) {
	storageCfg := config.StorageConfig{
		Backend:   "gcs",
		Bucket:    "reportpipe-artifacts",
		Prefix:    "reports",
		DualWrite: true,
	}
	h := healthHandler(&testStore{}, &testCache{}, storageCfg, missingRenderer())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	storage := body["data"].(map[string]any)["storage"].(map[string]any)
	assert.Equal(t, "gcs", storage["backend"])
	assert.Equal(t, "reportpipe-artifacts", storage["bucket"])
	assert.Equal(t, true, storage["dual_write"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{},
		localStorage(), missingRenderer())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")},
		localStorage(), missingRenderer())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── artifact store construction ────────────────────────────────────────────

func TestNewArtifactStore_Local(t *testing.T) {
	st, err := newArtifactStore(context.Background(), config.StorageConfig{
		Backend:   "local",
		LocalRoot: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "local", st.Backend())
}

func TestNewArtifactStore_UnknownBackend(t *testing.T) {
	_, err := newArtifactStore(context.Background(), config.StorageConfig{Backend: "s3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "AI_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AI_PROVIDER", "ollama")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
