package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/andresmv/reportpipe/internal/api"
	"github.com/andresmv/reportpipe/internal/api/handler"
	"github.com/andresmv/reportpipe/internal/blob"
	"github.com/andresmv/reportpipe/internal/cache"
	"github.com/andresmv/reportpipe/internal/store"
	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── test fixtures ───────────────────────────────────────────────────────────

var (
	testTenantID = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	readyID      = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	texOnlyID    = uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")
	processingID = uuid.MustParse("dddddddd-dddd-dddd-dddd-dddddddddddd")
	testPDF      = []byte("%PDF-1.5 contract test body")
)

// ─── mock store ──────────────────────────────────────────────────────────────

type mockStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*models.Report
}

func newMockStore() *mockStore {
	return &mockStore{reports: make(map[uuid.UUID]*models.Report)}
}

func (s *mockStore) Ping(_ context.Context) error { return nil }

func (s *mockStore) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; ok {
		return store.ErrDuplicateKey
	}
	s.reports[r.ID] = r
	return nil
}

func (s *mockStore) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reports[id]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockStore) UpdateReportStatus(_ context.Context, id uuid.UUID, status string, opts ...store.ReportUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return store.ErrNotFound
	}
	update := &store.ReportUpdate{}
	for _, opt := range opts {
		opt(update)
	}
	r.Status = status
	if update.TeXKey != nil {
		r.StorageKeyTeX = update.TeXKey
	}
	if update.PDFKey != nil {
		r.StorageKeyPDF = update.PDFKey
	}
	if update.ErrorMessage != nil {
		r.ErrorMessage = update.ErrorMessage
	}
	return nil
}

var _ store.Store = (*mockStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type mockCache struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
}

func newMockCache() *mockCache {
	return &mockCache{statuses: make(map[uuid.UUID]string)}
}

func (c *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *mockCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *mockCache) Ping(_ context.Context) error                                     { return nil }

func (c *mockCache) SetReportStatus(_ context.Context, id uuid.UUID, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[id] = status
	return nil
}

func (c *mockCache) GetReportStatus(_ context.Context, id uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[id]
	return status, ok, nil
}

var _ cache.Cache = (*mockCache)(nil)

// ─── mock artifact store ─────────────────────────────────────────────────────

type mockBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockBlob() *mockBlob {
	return &mockBlob{objects: make(map[string][]byte)}
}

func (b *mockBlob) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return key, nil
}

func (b *mockBlob) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, ok := b.objects[key]; ok {
		return data, nil
	}
	return nil, blob.ErrNotFound
}

func (b *mockBlob) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *mockBlob) Backend() string { return "mock" }

var _ blob.Store = (*mockBlob)(nil)

// ─── test harness ────────────────────────────────────────────────────────────

type testServer struct {
	server *httptest.Server
	store  *mockStore
	cache  *mockCache
	blob   *mockBlob
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ms := newMockStore()
	mc := newMockCache()
	mb := newMockBlob()

	// Pre-populate one report per lifecycle outcome.
	now := time.Now().UTC()
	texKey := blob.ReportKey("reports", testTenantID, readyID, "tex")
	pdfKey := blob.ReportKey("reports", testTenantID, readyID, "pdf")
	ms.reports[readyID] = &models.Report{
		ID: readyID, TenantID: testTenantID,
		Type: "financial", Period: "2026-Q2",
		Params: map[string]any{"revenue": float64(125000)},
		Status: models.ReportStatusReady,
		StorageKeyTeX: &texKey, StorageKeyPDF: &pdfKey,
		CreatedAt: now, UpdatedAt: now,
	}
	mb.objects[pdfKey] = testPDF

	degradedTeX := blob.ReportKey("reports", testTenantID, texOnlyID, "tex")
	ms.reports[texOnlyID] = &models.Report{
		ID: texOnlyID, TenantID: testTenantID,
		Type: "operations", Period: "2026-07",
		Params:        map[string]any{},
		Status:        models.ReportStatusReady,
		StorageKeyTeX: &degradedTeX,
		CreatedAt:     now, UpdatedAt: now,
	}

	ms.reports[processingID] = &models.Report{
		ID: processingID, TenantID: testTenantID,
		Type: "financial", Period: "2026-Q3",
		Params:    map[string]any{},
		Status:    models.ReportStatusProcessing,
		CreatedAt: now, UpdatedAt: now,
	}

	deps := api.Dependencies{
		GenerateHandler: handler.NewGenerateHandler(admittingGenerator()),
		MetadataHandler: handler.NewMetadataHandler(ms),
		StatusHandler:   handler.NewStatusHandler(ms, mc),
		DownloadHandler: handler.NewDownloadHandler(ms, mb),
	}

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testServer{server: srv, store: ms, cache: mc, blob: mb}
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func parseBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// ─── metadata ────────────────────────────────────────────────────────────────

func TestMetadata_Ready(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/v1/reports/"+readyID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := parseBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, readyID.String(), data["id"])
	assert.Equal(t, testTenantID.String(), data["tenant_id"])
	assert.Equal(t, models.ReportStatusReady, data["status"])
	assert.NotEmpty(t, data["storage_key_tex"])
	assert.NotEmpty(t, data["storage_key_pdf"])
}

func TestMetadata_DegradedHasNoPDFKey(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/v1/reports/"+texOnlyID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := parseBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, models.ReportStatusReady, data["status"])
	assert.NotEmpty(t, data["storage_key_tex"])
	assert.Nil(t, data["storage_key_pdf"])
}

func TestMetadata_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/v1/reports/"+uuid.New().String())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "REPORT_NOT_FOUND", errBody["code"])
}

func TestMetadata_InvalidID(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/v1/reports/not-a-uuid")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "INVALID_REQUEST", errBody["code"])
}

// ─── status ──────────────────────────────────────────────────────────────────

func TestStatus_FromStore(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/status", processingID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := parseBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, processingID.String(), data["id"])
	assert.Equal(t, models.ReportStatusProcessing, data["status"])
}

func TestStatus_CacheFastPath(t *testing.T) {
	ts := newTestServer(t)

	// Cached status wins even when the record store has no such report.
	cachedID := uuid.New()
	require.NoError(t, ts.cache.SetReportStatus(context.Background(), cachedID, models.ReportStatusReady, time.Minute))

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/status", cachedID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := parseBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, models.ReportStatusReady, data["status"])
}

func TestStatus_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/status", uuid.New()))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ─── download ────────────────────────────────────────────────────────────────

func TestDownload_ServesPDF(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/download", readyID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, blob.ContentTypePDF, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), readyID.String()+".pdf")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testPDF, body)
}

func TestDownload_DegradedReportHasNoPDF(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/download", texOnlyID))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "PDF_NOT_AVAILABLE", errBody["code"])
}

func TestDownload_ProcessingReport(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/download", processingID))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "PDF_NOT_AVAILABLE", errBody["code"])
}

func TestDownload_UnknownReport(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/download", uuid.New()))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "REPORT_NOT_FOUND", errBody["code"])
}

func TestDownload_MissingBlob(t *testing.T) {
	ts := newTestServer(t)

	// Record claims a PDF key but the object store lost it.
	pdfKey := *ts.store.reports[readyID].StorageKeyPDF
	ts.blob.mu.Lock()
	delete(ts.blob.objects, pdfKey)
	ts.blob.mu.Unlock()

	resp := ts.get(t, fmt.Sprintf("/api/v1/reports/%s/download", readyID))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "PDF_NOT_AVAILABLE", errBody["code"])
}

// ─── routing ─────────────────────────────────────────────────────────────────

func TestRouter_UnwiredHandlerReturns501(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(api.Dependencies{}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	errBody := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "NOT_IMPLEMENTED", errBody["code"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/v1/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.server.URL+"/api/v1/reports/"+readyID.String(), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
