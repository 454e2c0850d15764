package belief

import (
	"goassay/domain/assay"
)

// IndicatorVersion selects which nuisance summary feeds the calibrator.
// Calibrator artifacts record the version they were fit against; mixing
// versions at predict time silently mis-calibrates, so it is explicit.
type IndicatorVersion string

const (
	// IndicatorLedger is the legacy bookkeeping ratio: the removable share
	// of variance inflation from the nuisance model itself.
	IndicatorLedger IndicatorVersion = "ledger_v1"
	// IndicatorPosterior is the observation-aware nuisance probability from
	// the mechanism posterior.
	IndicatorPosterior IndicatorVersion = "posterior_v2"
)

// Context carries optional episode features that some calibrator fits use.
type Context struct {
	ElapsedHours float64 `json:"elapsed_hours"`
	RelativeDose float64 `json:"relative_dose"`
	Viability    float64 `json:"viability"`
}

// State is the minimal feature summary handed to the confidence calibrator:
// posterior shape plus a versioned nuisance indicator.
type State struct {
	TopProbability    float64          `json:"top_probability"`
	Margin            float64          `json:"margin"`
	Entropy           float64          `json:"entropy"`
	NuisanceIndicator float64          `json:"nuisance_indicator"`
	IndicatorVersion  IndicatorVersion `json:"indicator_version"`
	Context           *Context         `json:"context,omitempty"`
}

// FromRollout summarizes a prefix rollout into calibrator features.
func FromRollout(r *assay.PrefixRolloutResult, version IndicatorVersion) State {
	s := State{
		TopProbability:   r.Posterior.TopProbability(),
		Margin:           r.Posterior.Margin(),
		Entropy:          r.Posterior.Entropy(),
		IndicatorVersion: version,
		Context: &Context{
			ElapsedHours: r.ElapsedHours,
			RelativeDose: r.RelativeDose,
			Viability:    r.Viability,
		},
	}
	switch version {
	case IndicatorLedger:
		s.NuisanceIndicator = r.Posterior.Nuisance.NuisanceFraction()
	default:
		s.NuisanceIndicator = r.Posterior.NuisanceProbability()
	}
	return s
}
