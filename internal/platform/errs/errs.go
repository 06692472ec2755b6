package errs

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks a lost compare-and-swap on a versioned row.
	ErrConflict = errors.New("version conflict")
	// ErrAlreadyApplied is returned when a reward event was journaled before.
	ErrAlreadyApplied = errors.New("reward already applied")
)
