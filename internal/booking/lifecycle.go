package booking

import "github.com/example/classroom-reservation/internal/persistence"

// lifecycleTransitions enumerates the legal status moves. Pending is the
// initial state; rejected and cancelled are terminal. A confirmed reservation
// can only be revoked, never returned to pending.
var lifecycleTransitions = map[persistence.ReservationStatus][]persistence.ReservationStatus{
	persistence.StatusPending: {
		persistence.StatusConfirmed,
		persistence.StatusRejected,
		persistence.StatusCancelled,
	},
	persistence.StatusConfirmed: {
		persistence.StatusCancelled,
	},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to persistence.ReservationStatus) bool {
	for _, allowed := range lifecycleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transitionSources returns the statuses from which a transition to the given
// status is legal. It drives the expected-status sets handed to the store's
// conditional writes.
func transitionSources(to persistence.ReservationStatus) []persistence.ReservationStatus {
	var sources []persistence.ReservationStatus
	for _, from := range []persistence.ReservationStatus{
		persistence.StatusPending,
		persistence.StatusConfirmed,
		persistence.StatusRejected,
		persistence.StatusCancelled,
	} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}
