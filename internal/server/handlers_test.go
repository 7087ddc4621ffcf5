package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/archive"
	"github.com/Jamesybdp/VetaCV-AI/internal/config"
	"github.com/Jamesybdp/VetaCV-AI/internal/export"
	"github.com/Jamesybdp/VetaCV-AI/internal/generate"
	"github.com/Jamesybdp/VetaCV-AI/internal/health"
	"github.com/Jamesybdp/VetaCV-AI/internal/refine"
	"github.com/Jamesybdp/VetaCV-AI/internal/repair"
	"github.com/Jamesybdp/VetaCV-AI/internal/storage"
)

type stubRenderer struct {
	err error
}

func (r *stubRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

type testServer struct {
	srv     *Server
	mock    *generate.MockGenerator
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	idx, err := archive.NewIndex(filepath.Join(dir, "archive.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")
	cfg.Storage.ArtifactsDir = filepath.Join(dir, "artifacts")
	cfg.Storage.ArchiveIndexPath = filepath.Join(dir, "archive.bleve")

	mock := generate.NewMockGenerator()
	refiner := refine.NewService(mock, refine.WithSnapshotStore(store))
	exporter := export.NewOrchestrator(&stubRenderer{})
	srv := NewServer(refiner, mock, exporter, repair.New(), health.NewScorer(nil), store, idx, cfg, zap.NewNop())

	return &testServer{srv: srv, mock: mock, handler: srv.Router()}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func (ts *testServer) draft(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"user_id":     "u1",
		"source_text": "Ten years of analysis work",
		"goals":       map[string]string{"target_role": "Analyst", "job_description": "budgeting"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("draft status: got %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SessionID == "" {
		t.Fatal("empty session_id")
	}
	return out.SessionID
}

func TestHandleDraft(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	w := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get session status: got %d", w.Code)
	}
	var out struct {
		Markup string `json:"markup"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Markup == "" {
		t.Error("session markup empty")
	}
}

func TestHandleDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	w := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, body %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", w.Code)
	}
}

func TestHandleDraft_missingFields(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"user_id": "u1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleDraft_generatorFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.Err = &generate.GenerationError{Op: "refine", Reason: "model unavailable"}
	w := ts.do(t, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"user_id":     "u1",
		"source_text": "text",
		"goals":       map[string]string{"target_role": "Analyst"},
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", w.Code)
	}
}

func TestHandleRefine(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	ts.mock.Response.Markup = "<h1>Refined</h1>"
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/refine", map[string]string{
		"request": "make it punchier",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refine status: got %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		Markup string `json:"markup"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Markup != "<h1>Refined</h1>" {
		t.Errorf("markup = %q", out.Markup)
	}
}

func TestHandleRefine_unknownSession(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/nope/refine", map[string]string{
		"request": "anything",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleUndoRedo(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)
	original := ts.mock.Response.Markup

	ts.mock.Response.Markup = "<h1>Second</h1>"
	if w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/refine", map[string]string{"request": "expand"}); w.Code != http.StatusOK {
		t.Fatalf("refine status: got %d", w.Code)
	}

	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo status: got %d", w.Code)
	}
	var out struct {
		Markup string `json:"markup"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Markup != original {
		t.Errorf("undo markup = %q, want original", out.Markup)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/redo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("redo status: got %d", w.Code)
	}

	// Another undo then one too many: the second hits the start boundary.
	ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/undo", nil)
	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/undo", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("undo past start: got %d, want 409", w.Code)
	}
}

func TestHandleExport(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/export", map[string]string{"file_name": "jane_cv"})
	if w.Code != http.StatusOK {
		t.Fatalf("export status: got %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if got := w.Header().Get("X-Export-Degraded"); got != "false" {
		t.Errorf("degraded header = %q", got)
	}
	if !bytes.Equal(w.Body.Bytes(), []byte("%PDF-stub")) {
		t.Errorf("body = %q", w.Body.String())
	}

	// The outcome is recorded against the session.
	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/outcomes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("outcomes status: got %d", w.Code)
	}
	var out struct {
		Outcomes []struct {
			Succeeded bool `json:"succeeded"`
			Degraded  bool `json:"degraded"`
		} `json:"outcomes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Outcomes) != 1 || !out.Outcomes[0].Succeeded || out.Outcomes[0].Degraded {
		t.Errorf("outcomes = %+v", out.Outcomes)
	}
}

func TestHandleExport_degradesWhenRenderFails(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	ts.srv.exporter = export.NewOrchestrator(&stubRenderer{err: errors.New("chromium gone")})
	w := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status: got %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if got := w.Header().Get("X-Export-Degraded"); got != "true" {
		t.Errorf("degraded header = %q", got)
	}
}

func TestHandleRepair(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/repair", map[string]string{
		"markup": "<h1>Jane</h1><h1>Doe</h1><p>text",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("repair status: got %d", w.Code)
	}
	var out struct {
		Result struct {
			InnerHTML    string `json:"inner_html"`
			FixesApplied int    `json:"fixes_applied"`
		} `json:"result"`
		Health struct {
			Level string `json:"level"`
		} `json:"health"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Result.FixesApplied == 0 {
		t.Error("expected fixes for fused headings and an unclosed paragraph")
	}
	if out.Health.Level == "" {
		t.Error("health verdict missing")
	}
}

func TestHandleArchiveSaveAndSearch(t *testing.T) {
	ts := newTestServer(t)
	id := ts.draft(t)

	w := ts.do(t, http.MethodPost, "/api/v1/archive", map[string]interface{}{
		"session_id":  id,
		"user_id":     "u1",
		"target_role": "Analyst",
		"goals":       map[string]string{"target_role": "Analyst"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("archive save status: got %d, body %s", w.Code, w.Body.String())
	}
	var saved struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&saved); err != nil {
		t.Fatal(err)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/archive/search?user_id=u1&q=analyst", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status: got %d", w.Code)
	}
	var res struct {
		Results []struct {
			ID         string `json:"id"`
			TargetRole string `json:"target_role"`
		} `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.Results[0].ID != saved.ID {
		t.Errorf("results = %+v", res.Results)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/archive?user_id=u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}

	w = ts.do(t, http.MethodDelete, "/api/v1/archive/"+saved.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/v1/archive/"+saved.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
}

func TestHandleJobs(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/jobs", map[string]string{
		"user_id": "u1",
		"company": "Initech",
		"role":    "Analyst",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("job create status: got %d, body %s", w.Code, w.Body.String())
	}
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatal("job id not assigned")
	}

	w = ts.do(t, http.MethodPatch, "/api/v1/jobs/"+job.ID, map[string]string{
		"status": "Applied",
		"notes":  "sent via referral",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("job update status: got %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/jobs?user_id=u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("job list status: got %d", w.Code)
	}
	var list struct {
		Jobs []struct {
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Status != "Applied" {
		t.Errorf("jobs = %+v", list.Jobs)
	}

	w = ts.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("job delete status: got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["documents"]; !ok {
		t.Error("documents count missing")
	}
	if _, ok := out["config"]; !ok {
		t.Error("config block missing")
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
