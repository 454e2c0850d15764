package app

import (
	"context"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"goassay/domain/core"
	"goassay/domain/governance"
	"goassay/internal"
	"goassay/internal/planner"
)

// SweepSummary aggregates outcomes across a seed sweep. Planner instances
// share nothing, so sweeps parallelize freely.
type SweepSummary struct {
	Seeds        int              `json:"seeds"`
	Failures     int              `json:"failures"`
	CommitRate   float64          `json:"commit_rate"`
	MeanReward   float64          `json:"mean_reward"`
	MedianReward float64          `json:"median_reward"`
	StdevReward  float64          `json:"stdev_reward"`
	Outcomes     []*SearchOutcome `json:"-"`
}

// SweepService runs many independent searches across seeds, bounded by a
// concurrency weight.
type SweepService struct {
	search      *SearchService
	maxParallel int64
	log         *internal.Logger
}

// NewSweepService creates a sweep service.
func NewSweepService(search *SearchService, maxParallel int64, log *internal.Logger) *SweepService {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if log == nil {
		log = internal.DefaultLogger
	}
	return &SweepService{search: search, maxParallel: maxParallel, log: log}
}

// RunSweep executes one search per seed and summarizes the rewards and
// commit rate across the sweep.
func (s *SweepService) RunSweep(ctx context.Context, sessionID core.SessionID, seeds []int64, cfg planner.Config) (*SweepSummary, error) {
	sem := semaphore.NewWeighted(s.maxParallel)
	var mu sync.Mutex
	outcomes := make([]*SearchOutcome, 0, len(seeds))
	failures := 0

	var wg sync.WaitGroup
	for _, seed := range seeds {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, err := s.search.RunSearch(ctx, SearchRequest{
				SessionID: sessionID,
				Seed:      seed,
				Config:    cfg,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn("sweep seed %d failed: %v", seed, err)
				failures++
				return
			}
			outcomes = append(outcomes, outcome)
		}(seed)
	}
	wg.Wait()

	summary := &SweepSummary{
		Seeds:    len(seeds),
		Failures: failures,
		Outcomes: outcomes,
	}
	if len(outcomes) == 0 {
		return summary, nil
	}

	rewards := make([]float64, 0, len(outcomes))
	commits := 0
	for _, o := range outcomes {
		rewards = append(rewards, o.Result.BestReward)
		if o.Result.Forensics.FinalAction == string(governance.ActionCommit) {
			commits++
		}
	}
	summary.CommitRate = float64(commits) / float64(len(outcomes))
	summary.MeanReward, _ = stats.Mean(rewards)
	summary.MedianReward, _ = stats.Median(rewards)
	summary.StdevReward, _ = stats.StandardDeviation(rewards)

	s.log.Info("sweep complete: %d/%d ok, commit rate %.2f, mean reward %.3f",
		len(outcomes), len(seeds), summary.CommitRate, summary.MeanReward)
	return summary, nil
}
