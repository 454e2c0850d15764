package assay

import (
	"fmt"
	"strings"

	"goassay/domain/core"
)

// DoseLevels is the discrete set of allowed dose fractions of the reference
// dose. Zero means observe without dosing.
var DoseLevels = []float64{0, 0.25, 0.5, 1.0}

// AmplifyDoseMin is the dose fraction at or above which a repeat dose is
// treated as signal amplification rather than discrimination.
const AmplifyDoseMin = 0.5

// Action is one intervention on the subject at a single timestep.
// Actions are immutable values.
type Action struct {
	DoseFraction float64 `json:"dose_fraction"`
	Washout      bool    `json:"washout"`
	Feed         bool    `json:"feed"`
}

// IsIntervention reports whether the action perturbs the subject at all.
// A bare zero-dose observation does not count against the budget.
func (a Action) IsIntervention() bool {
	return a.DoseFraction > 0 || a.Washout || a.Feed
}

// String renders a compact stable encoding, e.g. "d0.50+w" or "d0.00".
func (a Action) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "d%.2f", a.DoseFraction)
	if a.Washout {
		b.WriteString("+w")
	}
	if a.Feed {
		b.WriteString("+f")
	}
	return b.String()
}

// Schedule is an ordered sequence of actions. Schedules are the unit of
// rollout memoization: two equal schedules must hash identically.
type Schedule []Action

// String joins the per-action encodings with "|".
func (s Schedule) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return strings.Join(parts, "|")
}

// Key returns the memoization key for this exact action sequence.
func (s Schedule) Key() core.ScheduleHash {
	return core.NewScheduleHash([]byte(s.String()))
}

// Extend returns a new schedule with one more action appended. The receiver
// is never modified; beam nodes share prefixes structurally.
func (s Schedule) Extend(a Action) Schedule {
	out := make(Schedule, len(s), len(s)+1)
	copy(out, s)
	return append(out, a)
}

// InterventionCount returns the number of budget-consuming actions.
func (s Schedule) InterventionCount() int {
	n := 0
	for _, a := range s {
		if a.IsIntervention() {
			n++
		}
	}
	return n
}

// HasPriorDose reports whether any action so far applied a nonzero dose.
// Washouts are only legal after a dose: there is nothing to wash out before.
func (s Schedule) HasPriorDose() bool {
	for _, a := range s {
		if a.DoseFraction > 0 {
			return true
		}
	}
	return false
}

// LastDose returns the most recent nonzero dose fraction, or 0 if none.
func (s Schedule) LastDose() float64 {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].DoseFraction > 0 {
			return s[i].DoseFraction
		}
	}
	return 0
}
