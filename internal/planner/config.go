package planner

import (
	"goassay/domain/assay"
	"goassay/domain/belief"
	"goassay/domain/governance"
)

// Config holds every tunable of the beam search as an explicit field with a
// documented default. Nothing is probed dynamically at runtime.
type Config struct {
	// Steps is the episode horizon in timesteps.
	Steps int
	// BeamWidth is the number of candidate nodes retained between steps.
	BeamWidth int
	// InterventionBudget caps budget-consuming actions per schedule.
	InterventionBudget int
	// ViabilityFloor is the death-tolerance: successors whose rollout
	// viability falls below it are pruned.
	ViabilityFloor float64
	// Doses is the discrete dose set enumerated per step.
	Doses []float64
	// Thresholds parameterize the governance contract.
	Thresholds governance.Thresholds
	// IndicatorVersion selects the nuisance feature fed to the calibrator.
	IndicatorVersion belief.IndicatorVersion

	// Non-terminal heuristic: WConfidence*conf + WViability*viability -
	// InterventionPenalty*interventions, then intent-biased when the parent
	// is in a NO_COMMIT governance state.
	WConfidence         float64
	WViability          float64
	InterventionPenalty float64

	// Commit utility: WCommitConfidence*conf + WCommitViability*viability
	// - TimePenalty*step - InterventionPenalty*interventions.
	WCommitConfidence float64
	WCommitViability  float64
	TimePenalty       float64

	// No-detection utility: WNoDetection*(1-evidence)*confidence -
	// TimePenalty*step - InterventionPenalty*interventions.
	WNoDetection float64

	// TerminalReserve is the beam fraction reserved for terminal nodes, so
	// early commits compete without collapsing the whole beam.
	TerminalReserve float64

	// MaxExpansions caps total successor expansions; exhaustion returns the
	// best node found so far rather than an error.
	MaxExpansions int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Steps:              8,
		BeamWidth:          12,
		InterventionBudget: 5,
		ViabilityFloor:     0.35,
		Doses:              assay.DoseLevels,
		Thresholds:         governance.DefaultThresholds(),
		IndicatorVersion:   belief.IndicatorPosterior,

		WConfidence:         1.0,
		WViability:          0.6,
		InterventionPenalty: 0.15,

		WCommitConfidence: 5.0,
		WCommitViability:  1.0,
		TimePenalty:       0.1,

		WNoDetection: 3.0,

		TerminalReserve: 0.25,
		MaxExpansions:   20000,
	}
}
