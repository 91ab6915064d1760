package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoPath indicates two users have no connecting chain of edges. It is
	// distinct from ErrNotFound so callers can tell "no path" apart from
	// "unknown entity".
	ErrNoPath = errors.New("no path between users")

	// ErrValidation indicates a malformed input entity, rejected before any
	// store write.
	ErrValidation = errors.New("validation failed")
)
