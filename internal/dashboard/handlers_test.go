package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements ReportStore for testing.
type mockStore struct {
	entries   []IndexEntry
	details   map[string]*ReportDetail
	listErr   error
	getErr    error
	reloadErr error
	reloads   int
}

func (m *mockStore) ListReports() ([]IndexEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func (m *mockStore) GetReport(name string) (*ReportDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.details[name]
	if !ok {
		return nil, ErrReportNotFound
	}
	return d, nil
}

func (m *mockStore) Summary() (*SummaryResponse, error) {
	return &SummaryResponse{TotalReports: len(m.entries), Models: []string{}}, nil
}

func (m *mockStore) Reload() error {
	m.reloads++
	return m.reloadErr
}

func serve(t *testing.T, store ReportStore, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	RegisterRoutes(mux, store)
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	w := serve(t, &mockStore{}, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, Version, resp.Version)
}

func TestHandleReports(t *testing.T) {
	store := &mockStore{entries: []IndexEntry{{Filename: "b.json"}, {Filename: "a.json"}}}
	w := serve(t, store, http.MethodGet, "/api/reports")
	require.Equal(t, http.StatusOK, w.Code)

	var got []IndexEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "b.json", got[0].Filename)
}

func TestHandleReportsStoreError(t *testing.T) {
	w := serve(t, &mockStore{listErr: errors.New("disk gone")}, http.MethodGet, "/api/reports")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "disk gone", resp.Error)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHandleReportDetail(t *testing.T) {
	tests := []struct {
		name     string
		store    *mockStore
		path     string
		wantCode int
	}{
		{
			name:     "found",
			store:    &mockStore{details: map[string]*ReportDetail{"r.json": {IndexEntry: IndexEntry{Filename: "r.json"}}}},
			path:     "/api/reports/r.json",
			wantCode: http.StatusOK,
		},
		{
			name:     "not found",
			store:    &mockStore{},
			path:     "/api/reports/missing.json",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "store error",
			store:    &mockStore{getErr: errors.New("boom")},
			path:     "/api/reports/r.json",
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, tt.store, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandleReload(t *testing.T) {
	store := &mockStore{entries: []IndexEntry{{Filename: "a.json"}}}
	w := serve(t, store, http.MethodPost, "/api/reports/reload")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.reloads)

	store.reloadErr = errors.New("nope")
	w = serve(t, store, http.MethodPost, "/api/reports/reload")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReloadRequiresPost(t *testing.T) {
	store := &mockStore{details: map[string]*ReportDetail{}}
	w := serve(t, store, http.MethodGet, "/api/reports/reload")
	// falls through to the detail route, which has no such report
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, store.reloads)
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORSMiddleware(inner, "http://localhost:5173")

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "moral_foundations_results_20250701_100000.json", sampleResults())

	store := NewFileStore(dir)

	reports, err := store.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 1)

	_, err = os.Stat(filepath.Join(dir, IndexFile))
	assert.True(t, os.IsNotExist(err), "listing must not write the index")

	detail, err := store.GetReport("moral_foundations_results_20250701_100000.json")
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Table.ByModel["gpt-4"]["Harm-Care"])
	assert.Equal(t, 3, detail.Table.ByModel["claude"]["Harm-Care"])
	assert.Equal(t, 2, detail.Table.Valid)
	assert.True(t, strings.HasPrefix(detail.Interpretation, "=== Interpretation ==="))

	_, err = store.GetReport("../../etc/passwd")
	assert.ErrorIs(t, err, ErrReportNotFound)

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalReports)
	assert.Equal(t, 4, summary.TotalResponses)
	assert.InDelta(t, 50.0, summary.ValidRate, 0.001)
	assert.Equal(t, []string{"claude", "gpt-4"}, summary.Models)

	writeResults(t, dir, "moral_foundations_results_20250801_100000.json", sampleResults())
	reports, err = store.ListReports()
	require.NoError(t, err)
	assert.Len(t, reports, 1, "store serves the cached scan until reload")

	require.NoError(t, store.Reload())
	reports, err = store.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "moral_foundations_results_20250801_100000.json", reports[0].Filename)

	onDisk, err := ReadIndex(dir)
	require.NoError(t, err)
	assert.Len(t, onDisk, 2)
}

func TestFileStoreMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	reports, err := store.ListReports()
	require.NoError(t, err)
	assert.Empty(t, reports)

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Zero(t, summary.TotalReports)
}
