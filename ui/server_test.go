package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goassay/app"
	"goassay/domain/core"
	"goassay/domain/governance"
	"goassay/internal/calibration"
	"goassay/internal/planner"
	"goassay/models"
	"goassay/ports"
)

type stubArchive struct {
	records map[string]*models.RunRecord
}

func (a *stubArchive) SaveRun(_ context.Context, rec *models.RunRecord) error {
	a.records[rec.ID] = rec
	return nil
}

func (a *stubArchive) GetRun(_ context.Context, id string) (*models.RunRecord, error) {
	rec, ok := a.records[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id)
	}
	return rec, nil
}

func (a *stubArchive) ListRuns(_ context.Context, _ string, _ int) ([]*models.RunRecord, error) {
	out := make([]*models.RunRecord, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec)
	}
	return out, nil
}

func testServer(archive ports.RunArchivePort) *Server {
	cfg := planner.DefaultConfig()
	cfg.Steps = 4
	cfg.BeamWidth = 6
	search := app.NewSearchService(calibration.NewFromModel(calibration.DefaultModel()), archive, nil)
	return NewServer(search, archive, cfg, nil)
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeAudit(t *testing.T, w *httptest.ResponseRecorder) auditResponse {
	t.Helper()
	var resp auditResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding audit response: %v", err)
	}
	return resp
}

func TestAudit_Commit(t *testing.T) {
	srv := testServer(nil)
	w := postJSON(t, srv, "/api/audit", `{
		"posterior": {"dna_damage": 0.92},
		"nuisance_prob": 0.10,
		"evidence_strength": 0.90
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	resp := decodeAudit(t, w)
	if resp.Decision.Action != governance.ActionCommit {
		t.Fatalf("expected COMMIT, got %s (%s)", resp.Decision.Action, resp.Decision.Reason)
	}
	if resp.Decision.Mechanism != "dna_damage" {
		t.Errorf("expected committed mechanism, got %q", resp.Decision.Mechanism)
	}
	if resp.Gaps.PosteriorGap != 0 || resp.Gaps.NuisanceGap != 0 {
		t.Errorf("commit must report zero gaps, got %+v", resp.Gaps)
	}
}

func TestAudit_HighNuisanceNoCommit(t *testing.T) {
	srv := testServer(nil)
	w := postJSON(t, srv, "/api/audit", `{
		"posterior": {"dna_damage": 0.55, "er_stress": 0.35},
		"nuisance_prob": 0.75,
		"evidence_strength": 0.85
	}`)
	resp := decodeAudit(t, w)
	if resp.Decision.Action != governance.ActionNoCommit {
		t.Fatalf("expected NO_COMMIT, got %s", resp.Decision.Action)
	}
	if !resp.Decision.HasBlocker(governance.BlockerHighNuisance) {
		t.Errorf("expected HIGH_NUISANCE, got %v", resp.Decision.Blockers)
	}
	if resp.Gaps.NuisanceGap <= 0 {
		t.Errorf("nuisance gap must be positive, got %f", resp.Gaps.NuisanceGap)
	}
}

func TestAudit_BadInputOmitsGaps(t *testing.T) {
	srv := testServer(nil)
	w := postJSON(t, srv, "/api/audit", `{
		"posterior": {"dna_damage": 0.9},
		"nuisance_prob": 1.5,
		"evidence_strength": 0.5
	}`)
	resp := decodeAudit(t, w)
	if !resp.Decision.HasBlocker(governance.BlockerBadInput) {
		t.Fatalf("expected BAD_INPUT, got %v", resp.Decision.Blockers)
	}
	if resp.Gaps != (governance.CommitGaps{}) {
		t.Errorf("gaps are meaningless on bad input, got %+v", resp.Gaps)
	}
}

func TestAudit_ThresholdOverride(t *testing.T) {
	srv := testServer(nil)
	// 0.75 top fails the default 0.80 gate but passes a relaxed one.
	w := postJSON(t, srv, "/api/audit", `{
		"posterior": {"er_stress": 0.75},
		"nuisance_prob": 0.10,
		"evidence_strength": 0.90,
		"thresholds": {
			"commit_posterior_min": 0.70,
			"nuisance_max_for_commit": 0.35,
			"evidence_min_for_detection": 0.70
		}
	}`)
	resp := decodeAudit(t, w)
	if resp.Decision.Action != governance.ActionCommit {
		t.Errorf("expected COMMIT under relaxed thresholds, got %s (%s)",
			resp.Decision.Action, resp.Decision.Reason)
	}
}

func TestAudit_RejectsMalformedJSON(t *testing.T) {
	srv := testServer(nil)
	w := postJSON(t, srv, "/api/audit", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSearchEndpoint_ReturnsArchivedRecord(t *testing.T) {
	archive := &stubArchive{records: make(map[string]*models.RunRecord)}
	srv := testServer(archive)

	w := postJSON(t, srv, "/api/search", `{"session_id": "sess-1", "seed": 42}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var rec models.RunRecord
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if rec.SessionID != "sess-1" || rec.Seed != 42 {
		t.Errorf("record identity wrong: %+v", rec)
	}
	if _, ok := archive.records[rec.ID]; !ok {
		t.Error("search result must be archived")
	}

	// The archived run is retrievable by ID.
	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+rec.ID, nil)
	get := httptest.NewRecorder()
	srv.Handler().ServeHTTP(get, req)
	if get.Code != http.StatusOK {
		t.Errorf("GET run: status %d", get.Code)
	}
}

func TestRunEndpoints_WithoutArchive(t *testing.T) {
	srv := testServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without archive, got %d", w.Code)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	archive := &stubArchive{records: make(map[string]*models.RunRecord)}
	srv := testServer(archive)
	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
