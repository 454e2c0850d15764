package intent

import (
	"testing"

	"goassay/domain/assay"
	"goassay/domain/governance"
	"goassay/domain/mechanism"
)

func TestClassify_Precedence(t *testing.T) {
	dosed := assay.Schedule{{DoseFraction: 0.5}}
	empty := assay.Schedule{}

	cases := []struct {
		name    string
		action  assay.Action
		history assay.Schedule
		want    Intent
	}{
		{"washout wins over dose", assay.Action{DoseFraction: 1.0, Washout: true}, dosed, ReduceNuisance},
		{"feed wins over dose", assay.Action{DoseFraction: 0.25, Feed: true}, dosed, ReduceNuisance},
		{"zero dose observes", assay.Action{}, dosed, Observe},
		{"large repeat dose amplifies", assay.Action{DoseFraction: 1.0}, dosed, AmplifySignal},
		{"large first dose discriminates", assay.Action{DoseFraction: 1.0}, empty, Discriminate},
		{"small dose discriminates", assay.Action{DoseFraction: 0.25}, dosed, Discriminate},
	}
	for _, tc := range cases {
		if got := Classify(tc.action, tc.history); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestBiasFor_HighNuisance(t *testing.T) {
	d := governance.Decision{
		Action:   governance.ActionNoCommit,
		Blockers: []governance.Blocker{governance.BlockerHighNuisance},
	}
	b := BiasFor(d, 0.9)

	if b.Multiplier(ReduceNuisance) <= 1.0 {
		t.Errorf("HIGH_NUISANCE must boost REDUCE_NUISANCE, got %f", b.Multiplier(ReduceNuisance))
	}
	if b.Multiplier(AmplifySignal) >= 1.0 {
		t.Errorf("HIGH_NUISANCE must suppress AMPLIFY_SIGNAL, got %f", b.Multiplier(AmplifySignal))
	}
}

func TestBiasFor_LowPosteriorOnly(t *testing.T) {
	d := governance.Decision{
		Action:   governance.ActionNoCommit,
		Blockers: []governance.Blocker{governance.BlockerLowPosteriorTop},
	}
	b := BiasFor(d, 0.9)

	if b.Multiplier(Discriminate) <= 1.0 {
		t.Errorf("LOW_POSTERIOR_TOP must boost DISCRIMINATE, got %f", b.Multiplier(Discriminate))
	}
	if b.Multiplier(Observe) <= 1.0 {
		t.Errorf("LOW_POSTERIOR_TOP must boost OBSERVE, got %f", b.Multiplier(Observe))
	}
}

// When both blockers are present, discrimination under unresolved
// confounding is unproductive: nuisance reduction must dominate.
func TestBiasFor_NuisanceDominatesWhenBothBlocked(t *testing.T) {
	d := governance.Decision{
		Action: governance.ActionNoCommit,
		Blockers: []governance.Blocker{
			governance.BlockerLowPosteriorTop,
			governance.BlockerHighNuisance,
		},
	}
	b := BiasFor(d, 0.9)

	if b.Multiplier(ReduceNuisance) <= b.Multiplier(Discriminate) {
		t.Errorf("nuisance reduction (%f) must dominate discrimination (%f)",
			b.Multiplier(ReduceNuisance), b.Multiplier(Discriminate))
	}
	if b.Multiplier(Discriminate) != 1.0 {
		t.Errorf("discrimination boost must be withheld under confounding, got %f",
			b.Multiplier(Discriminate))
	}
}

func TestBiasFor_NeutralOutsideNoCommit(t *testing.T) {
	for _, action := range []governance.Action{governance.ActionCommit, governance.ActionNoDetection} {
		b := BiasFor(governance.Decision{Action: action}, 0.9)
		for _, i := range []Intent{Observe, Discriminate, AmplifySignal, ReduceNuisance} {
			if b.Multiplier(i) != 1.0 {
				t.Errorf("%s: expected neutral bias for %s, got %f", action, i, b.Multiplier(i))
			}
		}
	}
}

// Closed-loop property: a nuisance-reducing action that resolves a
// HIGH_NUISANCE blocker must strictly shrink the nuisance gap, and the
// blocker must be gone from the next decision.
func TestReduceNuisanceClosesNuisanceGap(t *testing.T) {
	th := governance.DefaultThresholds()
	sig, _ := mechanism.SignatureOf(mechanism.ERStress)

	dirty := mechanism.NuisanceModel{
		ContextShift: [mechanism.NumChannels]float64{0.6, 0.6, 0.6},
		ArtifactVar:  0.15, HeterogeneityVar: 0.04, ContextVar: 0.10, ContactVar: 0.05,
	}
	before, err := mechanism.NewPosterior(dirty.TotalMeanShift(), dirty, nil)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	beforeIn := governance.Inputs{
		Posterior:        before.CandidateProbabilities(),
		NuisanceProb:     before.NuisanceProbability(),
		EvidenceStrength: 0.85,
	}
	beforeDecision := governance.Decide(beforeIn, th)
	if !beforeDecision.HasBlocker(governance.BlockerHighNuisance) {
		t.Fatalf("setup: expected HIGH_NUISANCE, got %s %v (nuisance %f)",
			beforeDecision.Action, beforeDecision.Blockers, before.NuisanceProbability())
	}
	beforeGap := governance.Gaps(beforeIn, th).NuisanceGap
	if beforeGap <= 0 {
		t.Fatalf("setup: expected positive nuisance gap, got %f", beforeGap)
	}

	// The planner's corrective choice under HIGH_NUISANCE.
	wash := assay.Action{Washout: true}
	if Classify(wash, assay.Schedule{{DoseFraction: 0.5}}) != ReduceNuisance {
		t.Fatal("washout must classify as REDUCE_NUISANCE")
	}

	clean := mechanism.NuisanceModel{
		ContextShift: [mechanism.NumChannels]float64{0.1, 0.1, 0.1},
		ArtifactVar:  0.05, HeterogeneityVar: 0.04, ContextVar: 0.03, ContactVar: 0.02,
	}
	var washedObs [mechanism.NumChannels]float64
	cleanShift := clean.TotalMeanShift()
	for i := 0; i < mechanism.NumChannels; i++ {
		washedObs[i] = sig.Mean[i] + cleanShift[i]
	}
	after, err := mechanism.NewPosterior(washedObs, clean, before)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	afterIn := governance.Inputs{
		Posterior:        after.CandidateProbabilities(),
		NuisanceProb:     after.NuisanceProbability(),
		EvidenceStrength: 0.85,
	}

	afterGap := governance.Gaps(afterIn, th).NuisanceGap
	if afterGap >= beforeGap {
		t.Errorf("nuisance gap must strictly shrink: %f -> %f", beforeGap, afterGap)
	}
	afterDecision := governance.Decide(afterIn, th)
	if afterDecision.HasBlocker(governance.BlockerHighNuisance) {
		t.Errorf("HIGH_NUISANCE must be resolved after the wash, got %v", afterDecision.Blockers)
	}
}
