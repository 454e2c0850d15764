package mechanism

import "math"

// Attribution records why a posterior changed between consecutive steps of a
// schedule: genuinely new observational evidence, redistribution of mass
// caused by a changing nuisance estimate, both, or neither. The split keeps
// a wash step that merely shrinks the nuisance explanation from being
// credited as if it had produced new discriminating evidence.
type Attribution string

const (
	AttributionEvidence        Attribution = "evidence"
	AttributionNuisanceReweigh Attribution = "nuisance_reweight"
	AttributionBoth            Attribution = "both"
	AttributionNone            Attribution = "none"
)

// attributionEpsilon is the minimum probability movement that counts as a
// real change rather than numerical drift.
const attributionEpsilon = 0.02

// AttributeChange classifies the change from prior to cur.
//
// The boundary is a policy, not physics: posterior movement on the leading
// real mechanism counts as evidence only when it is not fully explained by
// the complementary movement of the nuisance mass. Nuisance movement beyond
// epsilon always earns the nuisance_reweight tag.
func AttributeChange(prior, cur *Posterior) Attribution {
	if prior == nil || cur == nil {
		return AttributionNone
	}

	deltaNuisance := cur.NuisanceProbability() - prior.NuisanceProbability()

	// Track the leading real mechanism of the current step across both
	// posteriors, so a rank swap does not fake a probability jump.
	lead := cur.TopMechanism()
	if lead.IsUnknown() {
		best := 0.0
		for _, m := range Candidates() {
			if cur.Probability(m) > best {
				best = cur.Probability(m)
				lead = m
			}
		}
	}
	deltaLead := cur.Probability(lead) - prior.Probability(lead)

	nuisanceMoved := math.Abs(deltaNuisance) > attributionEpsilon
	// Evidence is lead movement in excess of what nuisance redistribution
	// alone would hand over.
	evidenceMoved := math.Abs(deltaLead) > attributionEpsilon &&
		math.Abs(deltaLead+deltaNuisance) > attributionEpsilon

	switch {
	case evidenceMoved && nuisanceMoved:
		return AttributionBoth
	case evidenceMoved:
		return AttributionEvidence
	case nuisanceMoved:
		return AttributionNuisanceReweigh
	default:
		return AttributionNone
	}
}
