package persistence

import (
	"context"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
)

// ResourceRepository exposes catalog operations for bookable classrooms.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id string) (Resource, error)
	// ListResources returns resources ordered by name; when activeOnly is
	// set, deactivated resources are omitted.
	ListResources(ctx context.Context, activeOnly bool) ([]Resource, error)
	// DeactivateResource soft-deletes a resource. Deactivating an already
	// inactive resource is a no-op, not an error.
	DeactivateResource(ctx context.Context, id string, at time.Time) (Resource, error)
}

// ReservationRepository stores reservation records and provides the atomic
// operations the booking layer builds on. The read-side FindConflicting and
// the write-side re-checks inside InsertIfAvailable and RescheduleIfAvailable
// use identical half-open overlap semantics.
type ReservationRepository interface {
	// InsertIfAvailable re-checks for conflicts against the given status set
	// and inserts in a single transaction, so two concurrent callers
	// proposing overlapping windows for the same resource cannot both
	// succeed. Returns ErrConflict when the slot is taken.
	InsertIfAvailable(ctx context.Context, reservation Reservation, conflictStatuses []ReservationStatus) (Reservation, error)

	GetReservation(ctx context.Context, id string) (Reservation, error)

	// FindConflicting returns every reservation on the resource whose window
	// overlaps the given one and whose status is in the given set, excluding
	// excludeID when non-empty.
	FindConflicting(ctx context.Context, resourceID string, window interval.Interval, statuses []ReservationStatus, excludeID string) ([]Reservation, error)

	// UpdateStatus conditionally moves a reservation to next if its stored
	// status is one of expected. Returns ErrNotFound when the record is
	// missing and ErrStatusMismatch when it exists in a different state.
	UpdateStatus(ctx context.Context, id string, expected []ReservationStatus, next ReservationStatus, at time.Time) (Reservation, error)

	// RescheduleIfAvailable applies update to a still-pending reservation
	// after re-checking, in the same transaction, that the new window is free
	// of conflicts from other reservations in the given status set. Returns
	// ErrConflict when the slot is taken and ErrStatusMismatch when the
	// reservation is no longer pending.
	RescheduleIfAvailable(ctx context.Context, id string, update ReservationUpdate, conflictStatuses []ReservationStatus, at time.Time) (Reservation, error)

	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)

	// ConflictingResourceIDs returns the ids of resources that have at least
	// one reservation in the given status set overlapping the window.
	ConflictingResourceIDs(ctx context.Context, window interval.Interval, statuses []ReservationStatus) ([]string, error)
}
