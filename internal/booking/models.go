package booking

import (
	"time"

	"github.com/example/classroom-reservation/internal/interval"
)

// Principal carries the identity and capability decisions made by the
// external authorization layer. The services never inspect roles; they only
// check these pre-computed flags.
type Principal struct {
	RequesterID string
	// CanApprove grants approve/reject authority over pending reservations.
	CanApprove bool
	// IsAdmin grants resource catalog management.
	IsAdmin bool
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	ResourceID string
	Window     interval.Interval
	GroupID    *string
	Recurring  bool
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// RescheduleReservationParams wraps the data required to move a pending
// reservation. Window is required; GroupID and Recurring are applied together
// with it, mirroring the pending-mutable field set.
type RescheduleReservationParams struct {
	ReservationID string
	Window        interval.Interval
	GroupID       *string
	Recurring     bool
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name     string
	Capacity int
	Notes    *string
}

// CreateResourceParams wraps the data required to register a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// ListReservationsParams narrows reservation listings.
type ListReservationsParams struct {
	ResourceID  string
	RequesterID string
	Status      string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}
