package app

import (
	"context"
	"encoding/json"
	"time"

	"goassay/adapters/simulator"
	"goassay/domain/core"
	"goassay/internal"
	"goassay/internal/planner"
	"goassay/models"
	"goassay/ports"
)

// SearchRequest defines one closed-loop experiment-design run.
type SearchRequest struct {
	SessionID core.SessionID
	Seed      int64
	Config    planner.Config
}

// SearchOutcome bundles the planner result with its persisted record.
type SearchOutcome struct {
	Result *planner.BeamSearchResult
	Record *models.RunRecord
}

// SearchService wires simulator, calibrator, planner, and the optional run
// archive into one entry point.
type SearchService struct {
	cal     ports.CalibratorPort
	archive ports.RunArchivePort
	log     *internal.Logger
}

// NewSearchService creates a search service. archive may be nil, in which
// case results are returned but not persisted.
func NewSearchService(cal ports.CalibratorPort, archive ports.RunArchivePort, log *internal.Logger) *SearchService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &SearchService{cal: cal, archive: archive, log: log}
}

// RunSearch executes one search against a fresh synthetic subject seeded by
// the request, then archives the outcome.
func (s *SearchService) RunSearch(ctx context.Context, req SearchRequest) (*SearchOutcome, error) {
	simCfg := simulator.DefaultConfig(req.Seed)
	simCfg.Horizon = req.Config.Steps
	sim := simulator.New(simCfg)

	return s.RunSearchWith(ctx, sim, req)
}

// RunSearchWith executes one search against a caller-supplied simulator.
func (s *SearchService) RunSearchWith(ctx context.Context, sim ports.SimulatorPort, req SearchRequest) (*SearchOutcome, error) {
	p := planner.New(sim, s.cal, req.Config, s.log)
	result, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	record := toRecord(result, req)
	if s.archive != nil {
		if err := s.archive.SaveRun(ctx, record); err != nil {
			// Archiving is best-effort: the search already succeeded.
			s.log.Warn("archiving run %s failed: %v", record.ID, err)
		}
	}

	return &SearchOutcome{Result: result, Record: record}, nil
}

// toRecord flattens a search result into the persistence model.
func toRecord(result *planner.BeamSearchResult, req SearchRequest) *models.RunRecord {
	scheduleJSON, _ := json.Marshal(result.BestSchedule)
	policyJSON, _ := json.Marshal(result.BestPolicy)

	return &models.RunRecord{
		ID:        core.NewID().String(),
		SessionID: req.SessionID.String(),
		Seed:      req.Seed,
		CreatedAt: time.Now().UTC(),

		BestReward:   result.BestReward,
		ScheduleJSON: scheduleJSON,
		PolicyJSON:   policyJSON,

		FinalAction:         result.Forensics.FinalAction,
		Reason:              result.Forensics.Reason,
		Mechanism:           result.Forensics.Mechanism,
		TopProbability:      result.Forensics.TopProbability,
		NuisanceProbability: result.Forensics.NuisanceProbability,
		PosteriorGap:        result.Forensics.PosteriorGap,
		NuisanceGap:         result.Forensics.NuisanceGap,

		Expanded:        result.Counters.Expanded,
		PrunedBudget:    result.Counters.PrunedBudget,
		PrunedViability: result.Counters.PrunedViability,
		PrunedError:     result.Counters.PrunedError,
		CacheHits:       result.Counters.CacheHits,
	}
}
