package governance

import (
	"fmt"
	"math"
	"sort"
)

// Decide is the single choke point for terminal decisions: every COMMIT and
// NO_DETECTION anywhere in the planner must come from this function. It is
// pure - no state, no I/O, identical inputs give identical decisions.
//
// Priority order:
//  1. Malformed inputs -> NO_COMMIT with BAD_INPUT (never clamp).
//  2. Commit gate: top posterior at or above CommitPosteriorMin and nuisance
//     at or below NuisanceMaxForCommit -> COMMIT with empty blockers. Both
//     boundaries are inclusive: each threshold names the last permitted
//     value, so a top posterior exactly at the minimum commits.
//  3. Strong evidence without a permitted commit -> NO_COMMIT carrying
//     whichever of LOW_POSTERIOR_TOP / HIGH_NUISANCE actually failed.
//     Strong evidence is never waved away as absence of signal.
//  4. Weak evidence without a permitted commit -> NO_DETECTION, no blockers.
func Decide(in Inputs, th Thresholds) Decision {
	if bad := validate(in); bad != "" {
		return Decision{
			Action:   ActionNoCommit,
			Reason:   fmt.Sprintf("rejected malformed inputs: %s", bad),
			Blockers: []Blocker{BlockerBadInput},
		}
	}

	top, topProb := topHypothesis(in.Posterior)

	posteriorOK := topProb >= th.CommitPosteriorMin
	nuisanceOK := in.NuisanceProb <= th.NuisanceMaxForCommit
	if posteriorOK && nuisanceOK {
		return Decision{
			Action:    ActionCommit,
			Mechanism: top,
			Reason: fmt.Sprintf("committed to %s: posterior %.3f >= %.3f, nuisance %.3f <= %.3f",
				top, topProb, th.CommitPosteriorMin, in.NuisanceProb, th.NuisanceMaxForCommit),
		}
	}

	if in.EvidenceStrength >= th.EvidenceMinForDetection {
		var blockers []Blocker
		if !posteriorOK {
			blockers = append(blockers, BlockerLowPosteriorTop)
		}
		if !nuisanceOK {
			blockers = append(blockers, BlockerHighNuisance)
		}
		return Decision{
			Action: ActionNoCommit,
			Reason: fmt.Sprintf("evidence %.3f is strong but commit gate failed (top %.3f, nuisance %.3f)",
				in.EvidenceStrength, topProb, in.NuisanceProb),
			Blockers: blockers,
		}
	}

	// Weak evidence is not a failure: there is simply nothing to detect.
	return Decision{
		Action: ActionNoDetection,
		Reason: fmt.Sprintf("evidence %.3f below detection floor %.3f; no detectable effect",
			in.EvidenceStrength, th.EvidenceMinForDetection),
	}
}

// Gaps reports the numeric distances to the commit gate for valid inputs.
func Gaps(in Inputs, th Thresholds) CommitGaps {
	_, topProb := topHypothesis(in.Posterior)
	return CommitGaps{
		PosteriorGap: math.Max(0, th.CommitPosteriorMin-topProb),
		NuisanceGap:  math.Max(0, in.NuisanceProb-th.NuisanceMaxForCommit),
	}
}

// validate returns an empty string for well-formed inputs, otherwise a
// description of the first violation found.
func validate(in Inputs) string {
	if in.NuisanceProb < 0 || in.NuisanceProb > 1 || math.IsNaN(in.NuisanceProb) {
		return fmt.Sprintf("nuisance_prob %.3f outside [0,1]", in.NuisanceProb)
	}
	if in.EvidenceStrength < 0 || in.EvidenceStrength > 1 || math.IsNaN(in.EvidenceStrength) {
		return fmt.Sprintf("evidence_strength %.3f outside [0,1]", in.EvidenceStrength)
	}
	for name, p := range in.Posterior {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Sprintf("posterior[%s]=%.3f outside [0,1]", name, p)
		}
	}
	return ""
}

// topHypothesis returns the argmax of the posterior map with a stable name
// tiebreak. An empty posterior yields ("", 0), which can never pass the
// commit gate.
func topHypothesis(posterior map[string]float64) (string, float64) {
	names := make([]string, 0, len(posterior))
	for name := range posterior {
		names = append(names, name)
	}
	sort.Strings(names)

	top, topProb := "", 0.0
	for _, name := range names {
		if posterior[name] > topProb {
			top, topProb = name, posterior[name]
		}
	}
	return top, topProb
}
