package models

import "github.com/cockroachdb/errors"

// Error taxonomy shared by every engine component. Callers wrap these with
// errors.Wrapf and classify with errors.Is.
var (
	// ErrNotFound marks a missing message, profile, scope or grant.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an actor lacking authority for a mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument marks a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExpired reports a countdown or grant that had already
	// elapsed. It is informational; the operation itself succeeded.
	ErrAlreadyExpired = errors.New("already expired")
	// ErrMalformedProvenance is logged when a forward context lacks labels.
	// It never fails a forward.
	ErrMalformedProvenance = errors.New("malformed provenance")
)
