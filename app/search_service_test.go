package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"goassay/domain/core"
	"goassay/internal/calibration"
	"goassay/internal/planner"
	"goassay/models"
)

// memArchive is an in-memory RunArchivePort for tests.
type memArchive struct {
	mu      sync.Mutex
	records map[string]*models.RunRecord
	saveErr error
}

func newMemArchive() *memArchive {
	return &memArchive{records: make(map[string]*models.RunRecord)}
}

func (a *memArchive) SaveRun(_ context.Context, rec *models.RunRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return a.saveErr
	}
	a.records[rec.ID] = rec
	return nil
}

func (a *memArchive) GetRun(_ context.Context, id string) (*models.RunRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id)
	}
	return rec, nil
}

func (a *memArchive) ListRuns(_ context.Context, sessionID string, limit int) ([]*models.RunRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*models.RunRecord, 0, len(a.records))
	for _, rec := range a.records {
		if sessionID != "" && rec.SessionID != sessionID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func smallConfig() planner.Config {
	cfg := planner.DefaultConfig()
	cfg.Steps = 4
	cfg.BeamWidth = 6
	cfg.InterventionBudget = 3
	return cfg
}

func TestRunSearch_ArchivesOutcome(t *testing.T) {
	archive := newMemArchive()
	svc := NewSearchService(calibration.NewFromModel(calibration.DefaultModel()), archive, nil)

	session := core.SessionID(core.NewID())
	outcome, err := svc.RunSearch(context.Background(), SearchRequest{
		SessionID: session,
		Seed:      42,
		Config:    smallConfig(),
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if outcome.Result == nil || outcome.Record == nil {
		t.Fatal("outcome must carry both result and record")
	}

	rec, err := archive.GetRun(context.Background(), outcome.Record.ID)
	if err != nil {
		t.Fatalf("archived record missing: %v", err)
	}
	if rec.SessionID != session.String() || rec.Seed != 42 {
		t.Errorf("record identity wrong: %+v", rec)
	}
	if rec.FinalAction != outcome.Result.Forensics.FinalAction {
		t.Errorf("record action %q does not match result %q",
			rec.FinalAction, outcome.Result.Forensics.FinalAction)
	}
	if len(rec.PolicyJSON) == 0 {
		t.Error("record must serialize the chosen policy")
	}
}

func TestRunSearch_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := newMemArchive()
	archive.saveErr = errors.New("connection refused")
	svc := NewSearchService(calibration.NewFromModel(calibration.DefaultModel()), archive, nil)

	outcome, err := svc.RunSearch(context.Background(), SearchRequest{Seed: 1, Config: smallConfig()})
	if err != nil {
		t.Fatalf("a broken archive must not fail the search: %v", err)
	}
	if outcome.Result == nil {
		t.Fatal("result must survive archive failure")
	}
}

func TestRunSearch_NilArchive(t *testing.T) {
	svc := NewSearchService(calibration.NewFromModel(calibration.DefaultModel()), nil, nil)
	outcome, err := svc.RunSearch(context.Background(), SearchRequest{Seed: 2, Config: smallConfig()})
	if err != nil {
		t.Fatalf("search without archive: %v", err)
	}
	if outcome.Record == nil {
		t.Error("record is still built for the caller even without an archive")
	}
}

func TestRunSweep_Summarizes(t *testing.T) {
	archive := newMemArchive()
	search := NewSearchService(calibration.NewFromModel(calibration.DefaultModel()), archive, nil)
	sweep := NewSweepService(search, 2, nil)

	seeds := []int64{1, 2, 3, 4}
	summary, err := sweep.RunSweep(context.Background(), core.SessionID(core.NewID()), seeds, smallConfig())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if summary.Seeds != len(seeds) {
		t.Errorf("expected %d seeds, got %d", len(seeds), summary.Seeds)
	}
	if summary.Failures != 0 {
		t.Errorf("expected no failures, got %d", summary.Failures)
	}
	if len(summary.Outcomes) != len(seeds) {
		t.Fatalf("expected %d outcomes, got %d", len(seeds), len(summary.Outcomes))
	}
	if summary.CommitRate < 0 || summary.CommitRate > 1 {
		t.Errorf("commit rate out of range: %f", summary.CommitRate)
	}
	if summary.StdevReward < 0 {
		t.Errorf("stdev must be non-negative: %f", summary.StdevReward)
	}

	recs, err := archive.ListRuns(context.Background(), "", 50)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(recs) != len(seeds) {
		t.Errorf("expected %d archived runs, got %d", len(seeds), len(recs))
	}
}
