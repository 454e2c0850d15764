package governance

// Action is one of the three terminal outcomes the contract can reach.
type Action string

const (
	ActionCommit      Action = "COMMIT"
	ActionNoCommit    Action = "NO_COMMIT"
	ActionNoDetection Action = "NO_DETECTION"
)

// Blocker is a machine-readable reason a commit was refused. Blockers drive
// corrective action selection downstream, so their set is closed.
type Blocker string

const (
	BlockerLowPosteriorTop Blocker = "LOW_POSTERIOR_TOP"
	BlockerHighNuisance    Blocker = "HIGH_NUISANCE"
	BlockerBadInput        Blocker = "BAD_INPUT"
)

// Inputs is the belief summary the contract adjudicates. All probabilities
// are required in [0,1]; out-of-range values are rejected, never clamped.
type Inputs struct {
	Posterior        map[string]float64 `json:"posterior"`
	NuisanceProb     float64            `json:"nuisance_prob"`
	EvidenceStrength float64            `json:"evidence_strength"`
}

// Thresholds are the three named cut-offs of the contract.
type Thresholds struct {
	CommitPosteriorMin      float64 `json:"commit_posterior_min"`
	NuisanceMaxForCommit    float64 `json:"nuisance_max_for_commit"`
	EvidenceMinForDetection float64 `json:"evidence_min_for_detection"`
}

// DefaultThresholds returns the production cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CommitPosteriorMin:      0.80,
		NuisanceMaxForCommit:    0.35,
		EvidenceMinForDetection: 0.70,
	}
}

// Decision is the contract's verdict: terminal action, committed mechanism
// (commit only), a human-readable reason, and machine-readable blockers.
// Decisions are pure values, reproducible from their inputs.
type Decision struct {
	Action    Action    `json:"action"`
	Mechanism string    `json:"mechanism,omitempty"`
	Reason    string    `json:"reason"`
	Blockers  []Blocker `json:"blockers,omitempty"`
}

// HasBlocker reports whether the decision carries the given blocker.
func (d Decision) HasBlocker(b Blocker) bool {
	for _, have := range d.Blockers {
		if have == b {
			return true
		}
	}
	return false
}

// CommitGaps are the numeric distances to the commit gate, reported so a
// caller can answer "why didn't it commit?" without re-running anything.
type CommitGaps struct {
	// PosteriorGap is max(0, commit_posterior_min - top_probability).
	PosteriorGap float64 `json:"posterior_gap"`
	// NuisanceGap is max(0, nuisance_prob - nuisance_max_for_commit).
	NuisanceGap float64 `json:"nuisance_gap"`
}
