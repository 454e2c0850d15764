package models

import (
	"time"
)

// RunRecord is the persistence/reporting model for one completed search:
// the chosen schedule, the terminal governance verdict, and the commit-gap
// forensics a caller needs to answer "why didn't it commit?" offline.
type RunRecord struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Seed      int64     `db:"seed" json:"seed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	BestReward   float64 `db:"best_reward" json:"best_reward"`
	ScheduleJSON []byte  `db:"schedule" json:"-"`
	PolicyJSON   []byte  `db:"policy" json:"-"`

	// Governance forensics at termination.
	FinalAction         string  `db:"final_action" json:"final_action"`
	Reason              string  `db:"reason" json:"reason"`
	Mechanism           string  `db:"mechanism" json:"mechanism,omitempty"`
	TopProbability      float64 `db:"top_probability" json:"top_probability"`
	NuisanceProbability float64 `db:"nuisance_probability" json:"nuisance_probability"`
	PosteriorGap        float64 `db:"posterior_gap" json:"posterior_gap"`
	NuisanceGap         float64 `db:"nuisance_gap" json:"nuisance_gap"`

	// Search counters.
	Expanded        int `db:"expanded" json:"expanded"`
	PrunedBudget    int `db:"pruned_budget" json:"pruned_budget"`
	PrunedViability int `db:"pruned_viability" json:"pruned_viability"`
	PrunedError     int `db:"pruned_error" json:"pruned_error"`
	CacheHits       int `db:"cache_hits" json:"cache_hits"`
}
