package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a guarded state transition finds the record
	// in a different state than required, e.g. a slot that is no longer
	// SWAPPABLE or a request that has already been resolved.
	ErrConflict = errors.New("persistence: state conflict")
	// ErrOwnerMismatch is returned when the acting user does not own the
	// record an operation requires ownership of.
	ErrOwnerMismatch = errors.New("persistence: owner mismatch")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a record fails schema level
	// validation such as a missing identifier or an out-of-set status value.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
