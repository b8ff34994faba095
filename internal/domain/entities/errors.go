package entities

import "errors"

// Cross-layer domain errors shared between repositories and use cases.
var (
	// ErrConcurrencyConflict signals that a conditional status update lost
	// the race against a concurrent writer; callers should re-fetch and
	// retry or surface the conflict.
	ErrConcurrencyConflict = errors.New("concurrent status update conflict")
)
