package booking

import (
	"errors"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

var (
	// ErrForbidden is returned when the acting principal lacks the capability
	// required for an operation.
	ErrForbidden = errors.New("booking: forbidden")
	// ErrResourceNotFound is returned when the referenced resource does not
	// exist.
	ErrResourceNotFound = errors.New("booking: resource not found")
	// ErrReservationNotFound is returned when the referenced reservation does
	// not exist.
	ErrReservationNotFound = errors.New("booking: reservation not found")
	// ErrResourceInactive is returned when a reservation targets a
	// deactivated resource.
	ErrResourceInactive = errors.New("booking: resource inactive")
	// ErrConflict is returned when an overlapping active reservation occupies
	// the requested slot, or when a conditional write lost a race and the
	// caller should re-read before retrying.
	ErrConflict = errors.New("booking: conflicting reservation")
	// ErrInvalidTransition is returned when the requested lifecycle move is
	// not legal from the reservation's current state.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	// ErrAlreadyTerminal is returned when cancelling a reservation that is
	// already rejected or cancelled.
	ErrAlreadyTerminal = errors.New("booking: reservation already terminal")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrResourceNotFound), errors.Is(err, ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, ErrResourceInactive):
		return "resource_inactive"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyTerminal):
		return "already_terminal"
	case errors.Is(err, interval.ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, persistence.ErrUnavailable):
		return "store_unavailable"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

// IsTransient reports whether the error is a transient store failure that the
// caller may retry. Domain errors are deterministic and must not be retried.
func IsTransient(err error) bool {
	return errors.Is(err, persistence.ErrUnavailable)
}
