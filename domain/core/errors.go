package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Planner errors
	ErrSearchExhausted = errors.New("beam search produced no candidate nodes")
	ErrPolicyLength    = errors.New("policy length does not match episode horizon")
	ErrSubjectDead     = errors.New("subject viability collapsed")

	// Calibration errors
	ErrCalibratorNotReady = errors.New("calibrator used before model load")
	ErrModelCorrupt       = errors.New("calibrator model artifact corrupt")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic rollout result")
	ErrSeedMismatch     = errors.New("seed mismatch")

	// Validation errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrChannelMismatch  = errors.New("observation channel count mismatch")
)

// NewNotFoundError creates a contextual not-found error
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, id)
}
