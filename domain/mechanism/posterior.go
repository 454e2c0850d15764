package mechanism

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"goassay/domain/core"
)

// Posterior is an immutable Bayesian posterior over the mechanism hypothesis
// set for a single observation. Derived quantities (top mechanism, margin,
// entropy, nuisance probability) are always computed from the probability
// map rather than cached, so they can never drift out of sync with it.
// The only post-construction mutation allowed is attaching a calibrated
// confidence via SetCalibratedConfidence.
type Posterior struct {
	probs       map[Mechanism]float64
	Observed    [NumChannels]float64
	Likelihoods map[Mechanism]float64
	Prior       map[Mechanism]float64
	Nuisance    NuisanceModel

	calibrated    float64
	hasCalibrated bool
}

// NewPosterior computes the posterior for one observed fold-change vector.
//
// Each hypothesis is scored with a diagonal multivariate normal likelihood
// using an effective mean (signature mean + total nuisance mean shift) and
// an effective variance (signature variance + isotropic nuisance inflation).
// The prior is taken from priorStep when supplied, uniform otherwise. If
// every likelihood underflows to zero the posterior falls back to uniform
// rather than emitting NaNs.
func NewPosterior(observed [NumChannels]float64, nm NuisanceModel, priorStep *Posterior) (*Posterior, error) {
	if err := nm.Validate(); err != nil {
		return nil, err
	}

	hypotheses := All()
	prior := make(map[Mechanism]float64, len(hypotheses))
	if priorStep != nil {
		for _, m := range hypotheses {
			prior[m] = priorStep.Probability(m)
		}
	} else {
		uniform := 1.0 / float64(len(hypotheses))
		for _, m := range hypotheses {
			prior[m] = uniform
		}
	}

	shift := nm.TotalMeanShift()
	inflation := nm.TotalVarInflation()

	likelihoods := make(map[Mechanism]float64, len(hypotheses))
	probs := make(map[Mechanism]float64, len(hypotheses))
	total := 0.0
	for _, m := range hypotheses {
		sig, ok := SignatureOf(m)
		if !ok {
			return nil, fmt.Errorf("%w: no signature for mechanism %q", core.ErrInsufficientData, m)
		}
		lik := 1.0
		for i := 0; i < NumChannels; i++ {
			dist := distuv.Normal{
				Mu:    sig.Mean[i] + shift[i],
				Sigma: math.Sqrt(sig.Var[i] + inflation),
			}
			lik *= dist.Prob(observed[i])
		}
		likelihoods[m] = lik
		probs[m] = prior[m] * lik
		total += probs[m]
	}

	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		// Underflow: every hypothesis is astronomically far from the
		// observation. A uniform posterior is the honest answer.
		uniform := 1.0 / float64(len(hypotheses))
		for _, m := range hypotheses {
			probs[m] = uniform
		}
	} else {
		for m := range probs {
			probs[m] /= total
		}
	}

	return &Posterior{
		probs:       probs,
		Observed:    observed,
		Likelihoods: likelihoods,
		Prior:       prior,
		Nuisance:    nm,
	}, nil
}

// Probability returns the posterior mass on a hypothesis.
func (p *Posterior) Probability(m Mechanism) float64 {
	return p.probs[m]
}

// Probabilities returns a copy of the full probability map.
func (p *Posterior) Probabilities() map[Mechanism]float64 {
	out := make(map[Mechanism]float64, len(p.probs))
	for m, v := range p.probs {
		out[m] = v
	}
	return out
}

// CandidateProbabilities returns the posterior over real mechanisms only,
// keyed by name, for governance inputs. Unknown mass is reported separately
// as NuisanceProbability.
func (p *Posterior) CandidateProbabilities() map[string]float64 {
	out := make(map[string]float64, len(p.probs)-1)
	for m, v := range p.probs {
		if !m.IsUnknown() {
			out[m.String()] = v
		}
	}
	return out
}

// ranked returns hypotheses sorted by descending probability, with a stable
// name tiebreak so identical posteriors always rank identically.
func (p *Posterior) ranked() []Mechanism {
	ms := All()
	sort.SliceStable(ms, func(i, j int) bool {
		pi, pj := p.probs[ms[i]], p.probs[ms[j]]
		if pi != pj {
			return pi > pj
		}
		return ms[i] < ms[j]
	})
	return ms
}

// TopMechanism returns the highest-probability hypothesis.
func (p *Posterior) TopMechanism() Mechanism {
	return p.ranked()[0]
}

// TopProbability returns the probability of the top hypothesis.
func (p *Posterior) TopProbability() float64 {
	return p.probs[p.TopMechanism()]
}

// Margin returns top probability minus runner-up probability (always >= 0).
func (p *Posterior) Margin() float64 {
	r := p.ranked()
	return p.probs[r[0]] - p.probs[r[1]]
}

// Entropy returns the Shannon entropy of the posterior in nats. Summation
// follows the fixed hypothesis order so replays are bit-identical.
func (p *Posterior) Entropy() float64 {
	h := 0.0
	for _, m := range All() {
		if v := p.probs[m]; v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h
}

// NuisanceProbability returns the posterior mass on the Unknown hypothesis,
// i.e. the probability that the observation is nuisance rather than a
// mechanistic perturbation.
func (p *Posterior) NuisanceProbability() float64 {
	return p.probs[Unknown]
}

// SetCalibratedConfidence attaches the calibrator's output. This is the one
// permitted post-construction mutation.
func (p *Posterior) SetCalibratedConfidence(c float64) {
	p.calibrated = c
	p.hasCalibrated = true
}

// CalibratedConfidence returns the attached calibrated confidence, if any.
func (p *Posterior) CalibratedConfidence() (float64, bool) {
	return p.calibrated, p.hasCalibrated
}
