package assay

import (
	"time"

	"goassay/domain/core"
	"goassay/domain/mechanism"
)

// PrefixRolloutResult is the simulator's answer for a schedule prefix: the
// belief state reachable by executing exactly those actions from a fresh
// subject. Deterministic given seed + schedule, so safe to memoize by
// Schedule.Key().
type PrefixRolloutResult struct {
	Schedule  Schedule `json:"schedule"`
	Step      int      `json:"step"`
	Viability float64  `json:"viability"`

	// FoldChanges are the mechanism-relevant channel readouts at this step.
	FoldChanges [mechanism.NumChannels]float64 `json:"fold_changes"`

	Posterior *mechanism.Posterior `json:"-"`

	// Nuisance forensics.
	MeanShiftMagnitude float64 `json:"mean_shift_magnitude"`
	VarianceInflation  float64 `json:"variance_inflation"`

	// EvidenceStrength is a [0,1] signal-to-noise summary of how strongly
	// the observation departs from an unperturbed subject.
	EvidenceStrength float64 `json:"evidence_strength"`

	// Attribution records why the posterior moved since the previous step.
	Attribution mechanism.Attribution `json:"attribution"`

	// Context features for calibration.
	ElapsedHours float64 `json:"elapsed_hours"`
	RelativeDose float64 `json:"relative_dose"`
}

// EpisodeReceipt summarizes one full-horizon execution.
type EpisodeReceipt struct {
	ID             core.RunID `json:"id"`
	Seed           int64      `json:"seed"`
	Steps          int        `json:"steps"`
	Interventions  int        `json:"interventions"`
	FinalViability float64    `json:"final_viability"`
	Reward         float64    `json:"reward"`
	TrueMechanism  string     `json:"true_mechanism,omitempty"`
	CompletedAt    time.Time  `json:"completed_at"`
}
