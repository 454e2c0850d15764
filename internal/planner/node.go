package planner

import (
	"goassay/domain/assay"
	"goassay/domain/belief"
	"goassay/domain/governance"
)

// NodeKind tags what a beam node represents.
type NodeKind string

const (
	// KindContinue is a partial schedule still being extended.
	KindContinue NodeKind = "CONTINUE"
	// KindCommit is a terminal node asserting a mechanism.
	KindCommit NodeKind = "COMMIT"
	// KindNoDetection is a terminal node declaring no detectable effect.
	KindNoDetection NodeKind = "NO_DETECTION"
)

// BeamNode is one candidate in the beam. Nodes are created once; the only
// mutation after creation is the lazy population of the cached belief
// fields by Planner.populate.
type BeamNode struct {
	Step          int
	Schedule      assay.Schedule
	Kind          NodeKind
	Interventions int

	// Cached belief state, populated by one prefix rollout.
	Rollout    *assay.PrefixRolloutResult
	Belief     belief.State
	Decision   governance.Decision
	Confidence float64

	// Score is the non-terminal heuristic; Utility is set only on
	// terminal nodes, along with Mechanism for commits.
	Score     float64
	Utility   float64
	Mechanism string
}

// IsTerminal reports whether the node is a COMMIT or NO_DETECTION leaf.
func (n *BeamNode) IsTerminal() bool {
	return n.Kind != KindContinue
}

// populated reports whether the belief cache has been filled.
func (n *BeamNode) populated() bool {
	return n.Rollout != nil
}
