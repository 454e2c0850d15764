package ports

import (
	"context"

	"goassay/domain/assay"
)

// SimulatorPort is the execution collaborator: it turns action schedules
// into belief states. Implementations must be deterministic given their
// seed - the planner memoizes rollouts by schedule and never recomputes a
// cached prefix - and must accept the empty schedule as the zero-length
// baseline prefix.
type SimulatorPort interface {
	// RolloutPrefix simulates a partial schedule from a fresh subject and
	// returns the belief state reachable at its end.
	RolloutPrefix(ctx context.Context, schedule assay.Schedule) (*assay.PrefixRolloutResult, error)

	// Run executes a full-horizon policy and returns the episode receipt
	// plus the per-step trajectory. Errors if the policy length does not
	// equal the configured horizon.
	Run(ctx context.Context, policy assay.Schedule) (*assay.EpisodeReceipt, []*assay.PrefixRolloutResult, error)

	// Horizon returns the episode length in steps.
	Horizon() int
}
