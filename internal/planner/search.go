package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"goassay/domain/assay"
	"goassay/domain/belief"
	"goassay/domain/core"
	"goassay/domain/governance"
	"goassay/domain/intent"
	"goassay/internal"
	"goassay/ports"
)

// Planner runs the beam search over intervention schedules. A single
// instance is not safe for concurrent use (it owns mutable caches);
// independent instances are fully isolated and may run in parallel.
type Planner struct {
	sim ports.SimulatorPort
	cal ports.CalibratorPort
	cfg Config
	log *internal.Logger

	cache    *prefixCache
	counters Counters

	// bestEver is the best-scoring non-terminal node seen anywhere, used
	// to reinject when aggressive pruning empties the beam.
	bestEver *BeamNode
}

// New creates a planner over a simulator and a loaded calibrator.
func New(sim ports.SimulatorPort, cal ports.CalibratorPort, cfg Config, log *internal.Logger) *Planner {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Planner{
		sim:   sim,
		cal:   cal,
		cfg:   cfg,
		log:   log,
		cache: newPrefixCache(),
	}
}

// Run executes the search and always returns a result with governance
// forensics, unless the baseline rollout itself is unusable.
func (p *Planner) Run(ctx context.Context) (*BeamSearchResult, error) {
	if p.sim.Horizon() != p.cfg.Steps {
		return nil, fmt.Errorf("planner horizon %d does not match simulator horizon %d",
			p.cfg.Steps, p.sim.Horizon())
	}

	root := &BeamNode{Step: 0, Schedule: assay.Schedule{}, Kind: KindContinue}
	if err := p.populate(ctx, root); err != nil {
		// The zero-length baseline must be computable; without it there is
		// no belief state to plan from.
		return nil, fmt.Errorf("baseline rollout failed: %w", err)
	}
	p.noteBest(root)

	beam := []*BeamNode{root}
	var bestTerminal *BeamNode

	capped := false
	for step := 0; step < p.cfg.Steps && !capped; step++ {
		var continues, terminals []*BeamNode

		for _, node := range beam {
			if node.IsTerminal() {
				// Terminal nodes do not advance the timestep; they stay in
				// the beam competing by utility.
				terminals = append(terminals, node)
				continue
			}
			if !node.populated() {
				if err := p.populate(ctx, node); err != nil {
					if fatal(err) {
						return nil, err
					}
					p.counters.PrunedError++
					continue
				}
			}

			// Emit at most one terminal successor per governance verdict.
			switch node.Decision.Action {
			case governance.ActionCommit:
				terminals = append(terminals, p.commitNode(node))
			case governance.ActionNoDetection:
				terminals = append(terminals, p.noDetectionNode(node))
			}

			kids, err := p.expand(ctx, node)
			if err != nil {
				return nil, err
			}
			continues = append(continues, kids...)

			if p.counters.Expanded >= p.cfg.MaxExpansions {
				p.log.Warn("expansion cap %d reached at step %d; returning best found", p.cfg.MaxExpansions, step)
				capped = true
				break
			}
		}

		bestTerminal = pickBestTerminal(bestTerminal, terminals)

		beam = p.selectBeam(continues, terminals)
		if len(beam) == 0 {
			if p.bestEver == nil {
				return nil, core.ErrSearchExhausted
			}
			// Reinject rather than abort: the search must end in a decision.
			p.log.Warn("beam emptied at step %d; reinjecting best-so-far node", step)
			p.counters.Reinjections++
			beam = []*BeamNode{p.bestEver}
		}
	}

	winner, err := p.finish(ctx, beam, bestTerminal)
	if err != nil {
		return nil, err
	}
	return p.buildResult(ctx, winner)
}

// expand enumerates legal continuation actions for one node, pruning on
// budget, viability, and simulation failure, and scoring survivors.
func (p *Planner) expand(ctx context.Context, node *BeamNode) ([]*BeamNode, error) {
	bias := intent.BiasFor(node.Decision, node.Rollout.EvidenceStrength)

	var out []*BeamNode
	for _, action := range p.legalActions(node) {
		interventions := node.Interventions
		if action.IsIntervention() {
			interventions++
		}
		if interventions > p.cfg.InterventionBudget {
			p.counters.PrunedBudget++
			continue
		}

		child := &BeamNode{
			Step:          node.Step + 1,
			Schedule:      node.Schedule.Extend(action),
			Kind:          KindContinue,
			Interventions: interventions,
		}
		if err := p.populate(ctx, child); err != nil {
			if fatal(err) {
				return nil, err
			}
			// A degenerate simulation state is a pruning signal, not a
			// search failure.
			p.counters.PrunedError++
			continue
		}
		if child.Rollout.Viability < p.cfg.ViabilityFloor {
			p.counters.PrunedViability++
			continue
		}

		score := p.cfg.WConfidence*child.Confidence +
			p.cfg.WViability*child.Rollout.Viability -
			p.cfg.InterventionPenalty*float64(interventions)
		if node.Decision.Action == governance.ActionNoCommit {
			score *= bias.Multiplier(intent.Classify(action, node.Schedule))
		}
		child.Score = score

		p.counters.Expanded++
		p.noteBest(child)
		out = append(out, child)
	}
	return out, nil
}

// legalActions enumerates the (dose, washout, feed) grid. Washouts are only
// legal after a prior nonzero dose.
func (p *Planner) legalActions(node *BeamNode) []assay.Action {
	washable := node.Schedule.HasPriorDose()
	var out []assay.Action
	for _, dose := range p.cfg.Doses {
		for _, washout := range []bool{false, true} {
			if washout && !washable {
				continue
			}
			for _, feed := range []bool{false, true} {
				out = append(out, assay.Action{DoseFraction: dose, Washout: washout, Feed: feed})
			}
		}
	}
	return out
}

// populate fills a node's belief cache with one (memoized) prefix rollout,
// the calibrated confidence, and the governance verdict for that belief.
func (p *Planner) populate(ctx context.Context, node *BeamNode) error {
	key := node.Schedule.Key()
	res, ok := p.cache.get(key)
	if !ok {
		var err error
		res, err = p.sim.RolloutPrefix(ctx, node.Schedule)
		if err != nil {
			return fmt.Errorf("rollout %q: %w", node.Schedule.String(), err)
		}
		p.cache.put(key, res)
	}

	node.Rollout = res
	node.Belief = belief.FromRollout(res, p.cfg.IndicatorVersion)

	conf, err := p.cal.PredictConfidence(node.Belief)
	if err != nil {
		// Proceeding without calibration would silently fabricate
		// confidence; surface immediately.
		return fmt.Errorf("calibrator failed for %q: %w", node.Schedule.String(), err)
	}
	node.Confidence = conf
	res.Posterior.SetCalibratedConfidence(conf)

	node.Decision = governance.Decide(governance.Inputs{
		Posterior:        res.Posterior.CandidateProbabilities(),
		NuisanceProb:     res.Posterior.NuisanceProbability(),
		EvidenceStrength: res.EvidenceStrength,
	}, p.cfg.Thresholds)
	return nil
}

// commitNode emits the terminal successor for a COMMIT-permitted parent.
func (p *Planner) commitNode(parent *BeamNode) *BeamNode {
	utility := p.cfg.WCommitConfidence*parent.Confidence +
		p.cfg.WCommitViability*parent.Rollout.Viability -
		p.cfg.TimePenalty*float64(parent.Step) -
		p.cfg.InterventionPenalty*float64(parent.Interventions)
	return &BeamNode{
		Step:          parent.Step,
		Schedule:      parent.Schedule,
		Kind:          KindCommit,
		Interventions: parent.Interventions,
		Rollout:       parent.Rollout,
		Belief:        parent.Belief,
		Decision:      parent.Decision,
		Confidence:    parent.Confidence,
		Utility:       utility,
		Mechanism:     parent.Decision.Mechanism,
	}
}

// noDetectionNode emits the terminal successor for a NO_DETECTION parent.
// The absence claim is weighted by how much the calibrator trusts the belief
// behind it, and pays the same time and intervention costs as a commit: a
// no-detection verdict reached cheaply beats the same verdict after burning
// budget.
func (p *Planner) noDetectionNode(parent *BeamNode) *BeamNode {
	utility := p.cfg.WNoDetection*(1.0-parent.Rollout.EvidenceStrength)*parent.Confidence -
		p.cfg.TimePenalty*float64(parent.Step) -
		p.cfg.InterventionPenalty*float64(parent.Interventions)
	return &BeamNode{
		Step:          parent.Step,
		Schedule:      parent.Schedule,
		Kind:          KindNoDetection,
		Interventions: parent.Interventions,
		Rollout:       parent.Rollout,
		Belief:        parent.Belief,
		Decision:      parent.Decision,
		Confidence:    parent.Confidence,
		Utility:       utility,
	}
}

// selectBeam partitions successors into non-terminals and terminals, ranks
// each group by its own score, reserves part of the width for terminals so
// early commits survive without crowding out exploration, and backfills
// from whichever group is underfull.
func (p *Planner) selectBeam(continues, terminals []*BeamNode) []*BeamNode {
	sort.SliceStable(continues, func(i, j int) bool { return continues[i].Score > continues[j].Score })
	sort.SliceStable(terminals, func(i, j int) bool { return terminals[i].Utility > terminals[j].Utility })

	reserve := int(float64(p.cfg.BeamWidth) * p.cfg.TerminalReserve)
	if reserve < 1 && len(terminals) > 0 {
		reserve = 1
	}
	nonTermSlots := p.cfg.BeamWidth - reserve

	takeC := min(nonTermSlots, len(continues))
	takeT := min(reserve, len(terminals))

	// Backfill unused capacity from the other group.
	spare := p.cfg.BeamWidth - takeC - takeT
	if spare > 0 {
		if extra := min(spare, len(continues)-takeC); extra > 0 {
			takeC += extra
			spare -= extra
		}
		if extra := min(spare, len(terminals)-takeT); extra > 0 {
			takeT += extra
		}
	}

	beam := make([]*BeamNode, 0, takeC+takeT)
	beam = append(beam, continues[:takeC]...)
	beam = append(beam, terminals[:takeT]...)
	return beam
}

// finish chooses the winning node: the best full-horizon trajectory by
// rollout reward, or an earlier terminal that wins by its own utility.
func (p *Planner) finish(ctx context.Context, beam []*BeamNode, bestTerminal *BeamNode) (*BeamNode, error) {
	var bestFull *BeamNode
	bestReward := 0.0
	for _, node := range beam {
		if node.IsTerminal() {
			bestTerminal = pickBestTerminal(bestTerminal, []*BeamNode{node})
			continue
		}
		if len(node.Schedule) != p.cfg.Steps {
			continue
		}
		receipt, _, err := p.sim.Run(ctx, node.Schedule)
		if err != nil {
			p.counters.PrunedError++
			continue
		}
		if bestFull == nil || receipt.Reward > bestReward {
			bestFull = node
			bestReward = receipt.Reward
		}
	}

	switch {
	case bestFull != nil && bestTerminal != nil:
		if bestTerminal.Utility > bestReward {
			return bestTerminal, nil
		}
		bestFull.Utility = bestReward
		return bestFull, nil
	case bestTerminal != nil:
		return bestTerminal, nil
	case bestFull != nil:
		bestFull.Utility = bestReward
		return bestFull, nil
	case p.bestEver != nil:
		// Expansion cap or pruning left no complete trajectory; the best
		// node found so far is still a defined answer.
		return p.bestEver, nil
	default:
		return nil, core.ErrSearchExhausted
	}
}

// buildResult assembles the final result with governance forensics and a
// full-horizon receipt for the winning node.
func (p *Planner) buildResult(ctx context.Context, winner *BeamNode) (*BeamSearchResult, error) {
	policy := padPolicy(winner.Schedule, p.cfg.Steps)
	receipt, trajectory, err := p.sim.Run(ctx, policy)
	if err != nil {
		p.log.Warn("final policy execution failed: %v", err)
	}

	gaps := governance.Gaps(governance.Inputs{
		Posterior:        winner.Rollout.Posterior.CandidateProbabilities(),
		NuisanceProb:     winner.Rollout.Posterior.NuisanceProbability(),
		EvidenceStrength: winner.Rollout.EvidenceStrength,
	}, p.cfg.Thresholds)

	p.counters.CacheHits = p.cache.hits
	p.counters.CacheMisses = p.cache.misses

	result := &BeamSearchResult{
		BestSchedule: winner.Schedule,
		BestPolicy:   policy,
		BestReward:   winner.Utility,
		Receipt:      receipt,
		Trajectory:   trajectory,
		Counters:     p.counters,
		Forensics: GovernanceForensics{
			FinalAction:         string(winner.Decision.Action),
			Reason:              winner.Decision.Reason,
			Mechanism:           winner.Decision.Mechanism,
			TopProbability:      winner.Rollout.Posterior.TopProbability(),
			NuisanceProbability: winner.Rollout.Posterior.NuisanceProbability(),
			PosteriorGap:        gaps.PosteriorGap,
			NuisanceGap:         gaps.NuisanceGap,
		},
	}

	p.log.Info("search finished: action=%s mechanism=%s reward=%.3f expanded=%d cacheHits=%d",
		result.Forensics.FinalAction, result.Forensics.Mechanism,
		result.BestReward, p.counters.Expanded, p.counters.CacheHits)
	return result, nil
}

// noteBest tracks the best-scoring non-terminal node seen anywhere, for
// reinjection when the beam empties.
func (p *Planner) noteBest(node *BeamNode) {
	if node.IsTerminal() {
		return
	}
	if p.bestEver == nil || node.Score > p.bestEver.Score {
		p.bestEver = node
	}
}

func pickBestTerminal(current *BeamNode, candidates []*BeamNode) *BeamNode {
	best := current
	for _, c := range candidates {
		if !c.IsTerminal() {
			continue
		}
		if best == nil || c.Utility > best.Utility {
			best = c
		}
	}
	return best
}

// padPolicy extends a schedule to the full horizon with passive observation
// steps so the episode executor accepts it.
func padPolicy(schedule assay.Schedule, steps int) assay.Schedule {
	if len(schedule) >= steps {
		return schedule[:steps]
	}
	policy := make(assay.Schedule, len(schedule), steps)
	copy(policy, schedule)
	for len(policy) < steps {
		policy = append(policy, assay.Action{})
	}
	return policy
}

// fatal reports whether a populate error must abort the search instead of
// pruning the candidate. Calibrator failures qualify; simulator failures
// do not.
func fatal(err error) bool {
	return errors.Is(err, core.ErrCalibratorNotReady)
}
