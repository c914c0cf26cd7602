package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when an insert or reschedule would overlap an
	// active reservation on the same resource.
	ErrConflict = errors.New("persistence: conflicting reservation")
	// ErrStatusMismatch is returned by conditional writes when the stored
	// status no longer matches the expected one.
	ErrStatusMismatch = errors.New("persistence: status mismatch")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint rejects the
	// record.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrUnavailable is returned for transient store failures (busy, locked,
	// timed out). It is the only persistence error callers may retry.
	ErrUnavailable = errors.New("persistence: store unavailable")
)
