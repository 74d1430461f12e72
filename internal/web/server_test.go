package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/regline/roi-filing/internal/config"
	"github.com/regline/roi-filing/internal/core"
	"github.com/regline/roi-filing/internal/filing"
)

// fakeStore is an in-memory core.Store for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	filings map[string]core.Filing
	rows    map[string]map[filing.TemplateID][]filing.Row
	exports []core.ExportRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		filings: make(map[string]core.Filing),
		rows:    make(map[string]map[filing.TemplateID][]filing.Row),
	}
}

func (f *fakeStore) CreateFiling(ctx context.Context, name string, params filing.PackageParameters) (core.Filing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := core.Filing{
		ID:        uuid.New().String(),
		Name:      name,
		Params:    params,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.filings[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) GetFiling(ctx context.Context, filingID string) (core.Filing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.filings[filingID]
	if !ok {
		return core.Filing{}, errors.New("filing not found: " + filingID)
	}
	return rec, nil
}

func (f *fakeStore) ListFilings(ctx context.Context) ([]core.Filing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]core.Filing, 0, len(f.filings))
	for _, rec := range f.filings {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) ReplaceTemplateRows(ctx context.Context, filingID string, templateID filing.TemplateID, rows []filing.Row) (int, error) {
	if _, ok := filing.TemplateByID(templateID); !ok {
		return 0, errors.New("unknown template: " + string(templateID))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rows[filingID] == nil {
		f.rows[filingID] = make(map[filing.TemplateID][]filing.Row)
	}
	f.rows[filingID][templateID] = rows
	return len(rows), nil
}

func (f *fakeStore) TemplateData(ctx context.Context, filingID string) (map[filing.TemplateID][]filing.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[filing.TemplateID][]filing.Row, len(f.rows[filingID]))
	for k, v := range f.rows[filingID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) TemplateRowCounts(ctx context.Context, filingID string) ([]core.TemplateRowCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]core.TemplateRowCount, 0, filing.TemplateCount())
	for _, t := range filing.Templates {
		out = append(out, core.TemplateRowCount{TemplateID: t.ID, RowCount: len(f.rows[filingID][t.ID])})
	}
	return out, nil
}

func (f *fakeStore) RecordExport(ctx context.Context, rec core.ExportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.exports = append(f.exports, rec)
	return nil
}

func (f *fakeStore) ListExports(ctx context.Context, filingID string) ([]core.ExportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []core.ExportRecord
	for _, rec := range f.exports {
		if rec.FilingID == filingID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	service := core.NewService(store, core.Options{Generator: "roi-filing/test"})
	return NewServer(service, testConfig()), store
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createTestFiling(t *testing.T, srv *Server) core.Filing {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/filings", map[string]string{
		"legalId":   "529900T8BM49AURSDO55",
		"refPeriod": "2024-12-31",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create filing: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var f core.Filing
	decode(t, rec, &f)
	return f
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestListTemplates(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/templates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var templates []templateResponse
	decode(t, rec, &templates)
	if len(templates) != filing.TemplateCount() {
		t.Errorf("len(templates) = %d, want %d", len(templates), filing.TemplateCount())
	}
	if templates[0].ID != filing.TemplateB0101 || templates[0].FileName != "b_01.01.csv" {
		t.Errorf("first template = %+v, want B_01.01 / b_01.01.csv", templates[0])
	}
}

func TestGetTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/templates/B_99.01", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/templates/B_42.42", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown template status = %d, want 404", rec.Code)
	}
}

func TestCreateFilingFromLegalID(t *testing.T) {
	srv, _ := newTestServer(t)

	f := createTestFiling(t, srv)
	if f.Params.EntityID != "rs:529900T8BM49AURSDO55" {
		t.Errorf("EntityID = %q, want rs: prefix applied", f.Params.EntityID)
	}
	if f.Params.RefPeriod != "2024-12-31" {
		t.Errorf("RefPeriod = %q, want 2024-12-31", f.Params.RefPeriod)
	}
	if f.Name == "" {
		t.Error("Name should default to legal ID and period")
	}
}

func TestCreateFilingRejectsEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/filings", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetFilingNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/filings/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	decode(t, rec, &resp)
	if resp.Code != "FIL001" {
		t.Errorf("Code = %q, want FIL001", resp.Code)
	}
}

func TestReplaceRowsAndCounts(t *testing.T) {
	srv, _ := newTestServer(t)
	f := createTestFiling(t, srv)

	rec := doJSON(t, srv, http.MethodPut, "/api/filings/"+f.ID+"/templates/B_01.01", map[string]interface{}{
		"rows": []map[string]interface{}{
			{"c0010": "alpha"},
			{"c0010": "beta"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RowCount int `json:"rowCount"`
	}
	decode(t, rec, &resp)
	if resp.RowCount != 2 {
		t.Errorf("rowCount = %d, want 2", resp.RowCount)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/filings/"+f.ID+"/templates", nil)
	var counts []core.TemplateRowCount
	decode(t, rec, &counts)
	if len(counts) != filing.TemplateCount() {
		t.Fatalf("len(counts) = %d, want %d", len(counts), filing.TemplateCount())
	}
	if counts[0].RowCount != 2 {
		t.Errorf("B_01.01 count = %d, want 2", counts[0].RowCount)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/filings/"+f.ID+"/templates/B_42.42", map[string]interface{}{"rows": nil})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown template status = %d, want 400", rec.Code)
	}
}

func TestValidateFilingAlwaysOK(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/filings", map[string]interface{}{
		"params": map[string]interface{}{
			"entityId":     "bogus",
			"refPeriod":    "soon",
			"baseCurrency": "euro",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var f core.Filing
	decode(t, rec, &f)

	rec = doJSON(t, srv, http.MethodPost, "/api/filings/"+f.ID+"/validate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200 even when invalid", rec.Code)
	}

	var result filing.ValidationResult
	decode(t, rec, &result)
	if result.Valid || len(result.Errors) != 3 {
		t.Errorf("result = %+v, want 3 accumulated errors", result)
	}
}

func TestExportFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	f := createTestFiling(t, srv)

	doJSON(t, srv, http.MethodPut, "/api/filings/"+f.ID+"/templates/B_01.01", map[string]interface{}{
		"rows": []map[string]interface{}{{"c0010": "entity one"}},
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/filings/"+f.ID+"/export", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	var started struct {
		ExportID string `json:"export_id"`
	}
	decode(t, rec, &started)
	if started.ExportID == "" {
		t.Fatal("export_id is empty")
	}

	// Result blocks until the export completes
	rec = doJSON(t, srv, http.MethodGet, "/api/exports/"+started.ExportID+"/result", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d", rec.Code)
	}
	var result core.ExportJobResult
	decode(t, rec, &result)
	if !result.Result.Success {
		t.Fatalf("export failed: %v", result.Result.Errors)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/exports/"+started.ExportID+"/download", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, result.Result.PackageName) {
		t.Errorf("Content-Disposition = %q, want canonical package name", disposition)
	}
	if rec.Body.Len() == 0 {
		t.Error("download body is empty")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/filings/"+f.ID+"/exports", nil)
	var records []core.ExportRecord
	decode(t, rec, &records)
	if len(records) != 1 || !records[0].Success {
		t.Errorf("audit records = %+v, want one successful entry", records)
	}
}

func TestExportUnknownFiling(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/filings/missing/export", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExportQueueStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/exports/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status core.ExportLimiterStatus
	decode(t, rec, &status)
	if status.MaxConcurrent != core.DefaultMaxConcurrentExports {
		t.Errorf("MaxConcurrent = %d, want %d", status.MaxConcurrent, core.DefaultMaxConcurrentExports)
	}
}

func TestCoverageEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/coverage", map[string]interface{}{
		"controls": []map[string]string{
			{"controlId": "CC9.1", "tscCategory": "CC9"},
			{"controlId": "CC9.2", "tscCategory": "CC9"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp coverageResponse
	decode(t, rec, &resp)
	if resp.Result.ArticlesCovered == 0 {
		t.Error("ArticlesCovered = 0, want coverage for CC9 articles")
	}
	if len(resp.Gaps) == 0 {
		t.Error("gaps should list the uncovered articles")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	store := newFakeStore()
	service := core.NewService(store, core.Options{})
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret-key"}
	srv := NewServer(service, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", rec.Code)
	}

	// Health endpoint stays open for probes
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}
