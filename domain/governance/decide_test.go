package governance

import (
	"reflect"
	"testing"
)

func defaultTh() Thresholds {
	return Thresholds{
		CommitPosteriorMin:      0.80,
		NuisanceMaxForCommit:    0.35,
		EvidenceMinForDetection: 0.70,
	}
}

func TestDecide_CommitScenario(t *testing.T) {
	d := Decide(Inputs{
		Posterior:        map[string]float64{"A": 0.92},
		NuisanceProb:     0.10,
		EvidenceStrength: 0.90,
	}, defaultTh())

	if d.Action != ActionCommit {
		t.Fatalf("expected COMMIT, got %s (%s)", d.Action, d.Reason)
	}
	if d.Mechanism != "A" {
		t.Errorf("expected mechanism A, got %q", d.Mechanism)
	}
	if len(d.Blockers) != 0 {
		t.Errorf("commit must carry no blockers, got %v", d.Blockers)
	}
}

func TestDecide_HighNuisanceBlocksCommit(t *testing.T) {
	d := Decide(Inputs{
		Posterior:        map[string]float64{"A": 0.55, "B": 0.35},
		NuisanceProb:     0.75,
		EvidenceStrength: 0.85,
	}, defaultTh())

	if d.Action != ActionNoCommit {
		t.Fatalf("expected NO_COMMIT, got %s", d.Action)
	}
	if !d.HasBlocker(BlockerHighNuisance) {
		t.Errorf("expected HIGH_NUISANCE blocker, got %v", d.Blockers)
	}
	// Top posterior 0.55 also fails the 0.80 gate.
	if !d.HasBlocker(BlockerLowPosteriorTop) {
		t.Errorf("expected LOW_POSTERIOR_TOP blocker too, got %v", d.Blockers)
	}
}

func TestDecide_WeakEvidenceIsNoDetection(t *testing.T) {
	d := Decide(Inputs{
		Posterior:        map[string]float64{"A": 0.45},
		NuisanceProb:     0.50,
		EvidenceStrength: 0.40,
	}, defaultTh())

	if d.Action != ActionNoDetection {
		t.Fatalf("expected NO_DETECTION, got %s (%s)", d.Action, d.Reason)
	}
	if len(d.Blockers) != 0 {
		t.Errorf("weak evidence is not a failure; got blockers %v", d.Blockers)
	}
}

func TestDecide_MalformedInputs(t *testing.T) {
	d := Decide(Inputs{
		Posterior:        map[string]float64{},
		NuisanceProb:     1.5,
		EvidenceStrength: 0.5,
	}, defaultTh())

	if d.Action != ActionNoCommit {
		t.Fatalf("expected NO_COMMIT, got %s", d.Action)
	}
	if !d.HasBlocker(BlockerBadInput) {
		t.Errorf("expected BAD_INPUT blocker, got %v", d.Blockers)
	}
}

func TestDecide_NeverClamps(t *testing.T) {
	cases := []Inputs{
		{Posterior: map[string]float64{"A": 0.9}, NuisanceProb: -0.01, EvidenceStrength: 0.9},
		{Posterior: map[string]float64{"A": 0.9}, NuisanceProb: 0.1, EvidenceStrength: 1.2},
		{Posterior: map[string]float64{"A": 1.3}, NuisanceProb: 0.1, EvidenceStrength: 0.9},
	}
	for i, in := range cases {
		d := Decide(in, defaultTh())
		if !d.HasBlocker(BlockerBadInput) {
			t.Errorf("case %d: expected BAD_INPUT, got %s %v", i, d.Action, d.Blockers)
		}
	}
}

// Strong evidence must never be waved away as absence of signal.
func TestDecide_AntiCowardice(t *testing.T) {
	grid := []float64{0, 0.1, 0.3, 0.5, 0.79, 0.81, 0.95, 1.0}
	for _, top := range grid {
		for _, nuisance := range grid {
			d := Decide(Inputs{
				Posterior:        map[string]float64{"A": top},
				NuisanceProb:     nuisance,
				EvidenceStrength: 0.70,
			}, defaultTh())
			if d.Action == ActionNoDetection {
				t.Fatalf("NO_DETECTION with strong evidence (top=%.2f nuisance=%.2f)", top, nuisance)
			}
		}
	}
}

// Any input passing both commit gates must commit to the argmax.
func TestDecide_CommitGateSufficiency(t *testing.T) {
	for _, top := range []float64{0.80, 0.85, 0.99} {
		for _, nuisance := range []float64{0, 0.2, 0.35} {
			for _, evidence := range []float64{0.1, 0.5, 0.9} {
				d := Decide(Inputs{
					Posterior:        map[string]float64{"A": top, "B": 1 - top},
					NuisanceProb:     nuisance,
					EvidenceStrength: evidence,
				}, defaultTh())
				if d.Action != ActionCommit {
					t.Fatalf("expected COMMIT at top=%.2f nuisance=%.2f evidence=%.2f, got %s",
						top, nuisance, evidence, d.Action)
				}
				if d.Mechanism != "A" {
					t.Fatalf("commit must name the argmax, got %q", d.Mechanism)
				}
				if len(d.Blockers) != 0 {
					t.Fatalf("commit blockers must be empty, got %v", d.Blockers)
				}
			}
		}
	}
}

func TestDecide_Deterministic(t *testing.T) {
	in := Inputs{
		Posterior:        map[string]float64{"A": 0.6, "B": 0.2, "C": 0.1},
		NuisanceProb:     0.4,
		EvidenceStrength: 0.8,
	}
	first := Decide(in, defaultTh())
	for i := 0; i < 10; i++ {
		if got := Decide(in, defaultTh()); !reflect.DeepEqual(got, first) {
			t.Fatalf("decision changed between identical calls: %+v vs %+v", first, got)
		}
	}
}

func TestGaps(t *testing.T) {
	g := Gaps(Inputs{
		Posterior:        map[string]float64{"A": 0.55},
		NuisanceProb:     0.75,
		EvidenceStrength: 0.85,
	}, defaultTh())

	if diff := g.PosteriorGap - 0.25; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("posterior gap: expected 0.25, got %f", g.PosteriorGap)
	}
	if diff := g.NuisanceGap - 0.40; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("nuisance gap: expected 0.40, got %f", g.NuisanceGap)
	}

	// Gaps clamp at zero once a gate is satisfied.
	g = Gaps(Inputs{
		Posterior:    map[string]float64{"A": 0.92},
		NuisanceProb: 0.10,
	}, defaultTh())
	if g.PosteriorGap != 0 || g.NuisanceGap != 0 {
		t.Errorf("expected zero gaps, got %+v", g)
	}
}

func TestDecide_EmptyPosteriorCannotCommit(t *testing.T) {
	d := Decide(Inputs{
		Posterior:        map[string]float64{},
		NuisanceProb:     0.1,
		EvidenceStrength: 0.9,
	}, defaultTh())
	if d.Action == ActionCommit {
		t.Fatal("empty posterior must never commit")
	}
	if !d.HasBlocker(BlockerLowPosteriorTop) {
		t.Errorf("expected LOW_POSTERIOR_TOP, got %v", d.Blockers)
	}
}
