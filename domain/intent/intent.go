package intent

import (
	"goassay/domain/assay"
	"goassay/domain/governance"
)

// Intent is the coarse purpose of a candidate action. The planner uses it to
// steer exploration toward actions that address why governance refused to
// commit.
type Intent string

const (
	Observe        Intent = "OBSERVE"
	Discriminate   Intent = "DISCRIMINATE"
	AmplifySignal  Intent = "AMPLIFY_SIGNAL"
	ReduceNuisance Intent = "REDUCE_NUISANCE"
)

// Classify maps an action to an intent by fixed precedence:
//
//  1. Any washout or feed is REDUCE_NUISANCE, whatever the dose.
//  2. A zero dose is OBSERVE.
//  3. A dose at or above assay.AmplifyDoseMin after an earlier dose is
//     AMPLIFY_SIGNAL (pushing a known response harder).
//  4. Any other dose is DISCRIMINATE (probing a new point of the response).
func Classify(a assay.Action, history assay.Schedule) Intent {
	if a.Washout || a.Feed {
		return ReduceNuisance
	}
	if a.DoseFraction == 0 {
		return Observe
	}
	if a.DoseFraction >= assay.AmplifyDoseMin && history.HasPriorDose() {
		return AmplifySignal
	}
	return Discriminate
}

// Bias holds per-intent reward multipliers derived from governance blockers.
type Bias map[Intent]float64

// Multiplier returns the factor for an intent, defaulting to 1.
func (b Bias) Multiplier(i Intent) float64 {
	if m, ok := b[i]; ok {
		return m
	}
	return 1.0
}

// BiasFor computes exploration multipliers from the current blockers.
//
// HIGH_NUISANCE boosts nuisance reduction strongly and suppresses signal
// amplification: turning the dose up under unresolved confounding just
// amplifies the confound. LOW_POSTERIOR_TOP boosts discrimination and
// observation, but only when HIGH_NUISANCE is absent - discrimination under
// confounding is unproductive, so when both blockers are present nuisance
// reduction dominates and the discrimination boost is withheld.
func BiasFor(d governance.Decision, evidenceStrength float64) Bias {
	b := Bias{
		Observe:        1.0,
		Discriminate:   1.0,
		AmplifySignal:  1.0,
		ReduceNuisance: 1.0,
	}
	if d.Action != governance.ActionNoCommit {
		return b
	}

	highNuisance := d.HasBlocker(governance.BlockerHighNuisance)
	if highNuisance {
		b[ReduceNuisance] = 2.5
		b[AmplifySignal] = 0.4
	}
	if d.HasBlocker(governance.BlockerLowPosteriorTop) && !highNuisance {
		b[Discriminate] = 1.8
		b[Observe] = 1.3
		if evidenceStrength < 0.5 {
			// Ambiguous signal: watching another cycle is cheap relative
			// to spending an intervention on a guess.
			b[Observe] = 1.5
		}
	}
	return b
}
