package planner

import (
	"goassay/domain/assay"
)

// GovernanceForensics explains the terminal decision of a search: what was
// decided, why, and the numeric distance to the commit gate, so a caller
// can audit "why didn't it commit?" without re-running anything.
type GovernanceForensics struct {
	FinalAction         string  `json:"final_action"`
	Reason              string  `json:"reason"`
	Mechanism           string  `json:"mechanism,omitempty"`
	TopProbability      float64 `json:"top_probability"`
	NuisanceProbability float64 `json:"nuisance_probability"`
	PosteriorGap        float64 `json:"posterior_gap"`
	NuisanceGap         float64 `json:"nuisance_gap"`
}

// Counters tracks search effort and pruning causes. Simulation failures are
// counted separately from death-tolerance pruning.
type Counters struct {
	Expanded        int `json:"expanded"`
	PrunedBudget    int `json:"pruned_budget"`
	PrunedViability int `json:"pruned_viability"`
	PrunedError     int `json:"pruned_error"`
	CacheHits       int `json:"cache_hits"`
	CacheMisses     int `json:"cache_misses"`
	Reinjections    int `json:"reinjections"`
}

// BeamSearchResult is the planner's answer: the best complete trajectory
// and everything needed to audit how it was chosen.
type BeamSearchResult struct {
	BestSchedule assay.Schedule               `json:"best_schedule"`
	BestPolicy   assay.Schedule               `json:"best_policy"`
	BestReward   float64                      `json:"best_reward"`
	Receipt      *assay.EpisodeReceipt        `json:"receipt,omitempty"`
	Trajectory   []*assay.PrefixRolloutResult `json:"-"`

	Counters  Counters            `json:"counters"`
	Forensics GovernanceForensics `json:"forensics"`
}
