package persistence

import (
	"time"

	"github.com/example/classroom-reservation/internal/interval"
)

// ReservationStatus enumerates the lifecycle states a reservation can occupy.
// Invalid strings are rejected at the storage boundary rather than silently
// accepted.
type ReservationStatus string

const (
	// StatusPending is the initial state of every reservation.
	StatusPending ReservationStatus = "pending"
	// StatusConfirmed marks a reservation approved by an authorized actor.
	StatusConfirmed ReservationStatus = "confirmed"
	// StatusRejected marks a reservation declined by an authorized actor.
	StatusRejected ReservationStatus = "rejected"
	// StatusCancelled marks a reservation revoked by its requester or an
	// authorized actor.
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// ActiveStatuses returns the conflict universe: reservations in these states
// occupy their resource-interval slot. Rejected and cancelled reservations
// free the slot.
func ActiveStatuses() []ReservationStatus {
	return []ReservationStatus{StatusPending, StatusConfirmed}
}

// Resource represents a bookable classroom. Resources are soft-deleted via
// the Active flag so reservation history stays intact.
type Resource struct {
	ID        string
	Name      string
	Capacity  int
	Notes     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a time-bounded claim on a resource. ResourceID and
// RequesterID are immutable after creation; Window, GroupID and Recurring may
// change only while the reservation is pending, and Status is mutated only
// through conditional writes.
type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	Window      interval.Interval
	Status      ReservationStatus
	GroupID     *string
	Recurring   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationUpdate carries the pending-mutable fields applied by a
// reschedule.
type ReservationUpdate struct {
	Window    interval.Interval
	GroupID   *string
	Recurring bool
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	ResourceID  string
	RequesterID string
	Status      *ReservationStatus
	StartsAfter *time.Time
	EndsBefore  *time.Time
}
