package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// ScheduleHash keys memoized prefix rollouts by the exact action sequence.
	ScheduleHash Hash
	// ModelVersion fingerprints a frozen calibrator artifact.
	ModelVersion Hash
)

// Constructors
func NewScheduleHash(data []byte) ScheduleHash { return ScheduleHash(NewHash(data)) }
func NewModelVersion(data []byte) ModelVersion { return ModelVersion(NewHash(data)) }

// String conversions
func (h ScheduleHash) String() string { return Hash(h).String() }
func (h ModelVersion) String() string { return Hash(h).String() }
