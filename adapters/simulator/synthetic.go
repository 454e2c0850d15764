// Package simulator provides a deterministic synthetic subject implementing
// ports.SimulatorPort. Every rollout reconstructs world state from scratch,
// so the adapter is stateless between calls and a pure function of
// seed + schedule; per-step noise is derived from the schedule prefix hash,
// so extending a schedule never rewrites the noise of earlier steps.
package simulator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"goassay/domain/assay"
	"goassay/domain/core"
	"goassay/domain/mechanism"
)

// Config parameterizes the synthetic subject.
type Config struct {
	Seed          int64
	Horizon       int
	TrueMechanism mechanism.Mechanism
	// StepHours is wall-clock time per timestep.
	StepHours float64
	// NoiseSD is per-channel observation noise.
	NoiseSD float64
}

// DefaultConfig returns a subject with a moderate-difficulty ground truth.
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:          seed,
		Horizon:       8,
		TrueMechanism: mechanism.ERStress,
		StepHours:     6,
		NoiseSD:       0.12,
	}
}

// Subject is the synthetic biological subject.
type Subject struct {
	cfg Config
}

// New creates a synthetic subject.
func New(cfg Config) *Subject {
	return &Subject{cfg: cfg}
}

// Horizon returns the episode length in steps.
func (s *Subject) Horizon() int {
	return s.cfg.Horizon
}

// worldState is the hidden physiological and artifact state, rebuilt from
// scratch on every rollout.
type worldState struct {
	doseLoad  float64
	viability float64
	density   float64

	contextShift  [mechanism.NumChannels]float64
	pipelineShift [mechanism.NumChannels]float64
	contactShift  [mechanism.NumChannels]float64

	artifactVar float64
	contextVar  float64
	contactVar  float64
}

// pipelineFactors spreads a batch effect unevenly over channels.
var pipelineFactors = [mechanism.NumChannels]float64{1.0, 0.6, 0.8}

// contactFactors: crowding mostly distorts texture and intensity channels.
var contactFactors = [mechanism.NumChannels]float64{0.3, 1.0, 0.7}

func (s *Subject) initialState() worldState {
	w := worldState{
		viability:   1.0,
		density:     0.40,
		artifactVar: 0.02,
		contactVar:  0.012,
	}
	// Pipeline shift is a per-episode batch effect fixed by the seed.
	rng := s.stepRNG(assay.Schedule{}, -1)
	batch := 0.03 + 0.02*rng.Float64()
	for i := 0; i < mechanism.NumChannels; i++ {
		w.pipelineShift[i] = batch * pipelineFactors[i]
	}
	return w
}

// advance applies one action to the world.
func (w *worldState) advance(a assay.Action, rng *rand.Rand) {
	// Compound kinetics: carryover decays, new dose adds.
	w.doseLoad = w.doseLoad*0.6 + a.DoseFraction

	if a.Washout {
		// Washing removes compound and context/temporal artifacts but
		// cannot undo the batch effect.
		w.doseLoad *= 0.25
		for i := range w.contextShift {
			w.contextShift[i] *= 0.30
			w.contactShift[i] *= 0.40
		}
		w.artifactVar *= 0.5
		w.contextVar *= 0.5
	}
	if a.Feed {
		w.viability = math.Min(1.0, w.viability+0.08)
		w.contactVar *= 0.7
	}

	// Toxicity and passive recovery.
	w.viability *= 1.0 - 0.18*a.DoseFraction
	if a.DoseFraction == 0 && !a.Feed {
		w.viability = math.Min(1.0, w.viability+0.02)
	}

	// Confluency and artifact drift.
	w.density = math.Min(1.0, w.density+0.07)
	drift := 0.04 + 0.02*rng.Float64()
	for i := range w.contextShift {
		w.contextShift[i] += drift * (0.5 + 0.5*rng.Float64())
		w.contactShift[i] = 0.10 * w.density * contactFactors[i]
	}
	w.artifactVar += 0.010
	w.contextVar += 0.008
	w.contactVar = 0.030 * w.density
}

// nuisance exposes the world's artifact state as the structured model the
// inference layer consumes.
func (w *worldState) nuisance() mechanism.NuisanceModel {
	return mechanism.NuisanceModel{
		ContextShift:     w.contextShift,
		PipelineShift:    w.pipelineShift,
		ContactShift:     w.contactShift,
		ArtifactVar:      w.artifactVar,
		HeterogeneityVar: 0.04,
		ContextVar:       w.contextVar,
		PipelineVar:      0.02,
		ContactVar:       w.contactVar,
	}
}

// observe produces the fold-change readout for the current state.
func (s *Subject) observe(w *worldState, rng *rand.Rand) [mechanism.NumChannels]float64 {
	sig, _ := mechanism.SignatureOf(s.cfg.TrueMechanism)
	// Saturating dose response.
	response := w.doseLoad / (w.doseLoad + 0.5)
	shift := w.nuisance().TotalMeanShift()

	var fold [mechanism.NumChannels]float64
	for i := 0; i < mechanism.NumChannels; i++ {
		fold[i] = sig.Mean[i]*response + shift[i] + rng.NormFloat64()*s.cfg.NoiseSD
	}
	return fold
}

// RolloutPrefix simulates a schedule prefix from a fresh subject. Safe to
// call with an empty schedule: that is the pre-intervention baseline read.
func (s *Subject) RolloutPrefix(ctx context.Context, schedule assay.Schedule) (*assay.PrefixRolloutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := s.initialState()
	var posterior *mechanism.Posterior
	var prior *mechanism.Posterior

	for i, action := range schedule {
		rng := s.stepRNG(schedule[:i+1], i)
		w.advance(action, rng)
		if w.viability <= 0.01 {
			return nil, fmt.Errorf("%w: step %d of %q", core.ErrSubjectDead, i, schedule.String())
		}

		fold := s.observe(&w, rng)
		prior = posterior
		var err error
		posterior, err = mechanism.NewPosterior(fold, w.nuisance(), prior)
		if err != nil {
			return nil, err
		}
	}

	// Zero-length prefix: baseline observation, uniform prior.
	if posterior == nil {
		rng := s.stepRNG(schedule, 0)
		fold := s.observe(&w, rng)
		var err error
		posterior, err = mechanism.NewPosterior(fold, w.nuisance(), nil)
		if err != nil {
			return nil, err
		}
	}

	fold := posterior.Observed
	magnitude := floats.Norm(fold[:], 2)
	shift := w.nuisance().TotalMeanShift()

	return &assay.PrefixRolloutResult{
		Schedule:           schedule,
		Step:               len(schedule),
		Viability:          w.viability,
		FoldChanges:        fold,
		Posterior:          posterior,
		MeanShiftMagnitude: floats.Norm(shift[:], 2),
		VarianceInflation:  w.nuisance().TotalVarInflation(),
		EvidenceStrength:   magnitude / (magnitude + 0.8),
		Attribution:        mechanism.AttributeChange(prior, posterior),
		ElapsedHours:       float64(len(schedule)) * s.cfg.StepHours,
		RelativeDose:       schedule.LastDose(),
	}, nil
}

// Run executes a full-horizon policy, returning the episode receipt and the
// per-step trajectory. The policy must be exactly Horizon() actions.
func (s *Subject) Run(ctx context.Context, policy assay.Schedule) (*assay.EpisodeReceipt, []*assay.PrefixRolloutResult, error) {
	if len(policy) != s.cfg.Horizon {
		return nil, nil, fmt.Errorf("%w: got %d actions, horizon is %d",
			core.ErrPolicyLength, len(policy), s.cfg.Horizon)
	}

	trajectory := make([]*assay.PrefixRolloutResult, 0, len(policy))
	for i := range policy {
		res, err := s.RolloutPrefix(ctx, policy[:i+1])
		if err != nil {
			return nil, trajectory, err
		}
		trajectory = append(trajectory, res)
	}

	final := trajectory[len(trajectory)-1]
	// Episode reward: posterior mass on the true mechanism, weighted by how
	// alive the subject still is, minus intervention spend.
	reward := final.Posterior.Probability(s.cfg.TrueMechanism)*final.Viability -
		0.05*float64(policy.InterventionCount())

	receipt := &assay.EpisodeReceipt{
		ID:             core.RunID(core.NewID()),
		Seed:           s.cfg.Seed,
		Steps:          len(policy),
		Interventions:  policy.InterventionCount(),
		FinalViability: final.Viability,
		Reward:         reward,
		TrueMechanism:  s.cfg.TrueMechanism.String(),
		CompletedAt:    time.Now().UTC(),
	}
	return receipt, trajectory, nil
}

// stepRNG derives the per-step noise source from the seed and the exact
// action prefix, so identical prefixes always see identical noise.
func (s *Subject) stepRNG(prefix assay.Schedule, step int) *rand.Rand {
	h := core.NewHash([]byte(fmt.Sprintf("%d|%d|%s", s.cfg.Seed, step, prefix.String())))
	raw := []byte(h.String())
	seed := int64(binary.BigEndian.Uint64(raw[:8]))
	return rand.New(rand.NewSource(seed))
}
