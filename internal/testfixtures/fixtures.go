package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

// ReferenceTime returns the shared instant fixtures are anchored to.
func ReferenceTime() time.Time {
	return time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)
}

// Window builds an interval offset from ReferenceTime by whole hours.
func Window(startHourOffset, endHourOffset int) interval.Interval {
	base := ReferenceTime()
	return interval.Interval{
		Start: base.Add(time.Duration(startHourOffset) * time.Hour),
		End:   base.Add(time.Duration(endHourOffset) * time.Hour),
	}
}

// Classroom returns an active resource record with sensible defaults.
func Classroom(id, name string) persistence.Resource {
	now := ReferenceTime()
	return persistence.Resource{
		ID:        id,
		Name:      name,
		Capacity:  30,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PendingReservation returns a pending reservation record for the given
// resource and window.
func PendingReservation(id, resourceID, requesterID string, window interval.Interval) persistence.Reservation {
	now := ReferenceTime()
	return persistence.Reservation{
		ID:          id,
		ResourceID:  resourceID,
		RequesterID: requesterID,
		Window:      window,
		Status:      persistence.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SeedResource inserts a resource into the store, failing the test on error.
func SeedResource(tb testing.TB, store *MemoryStore, resource persistence.Resource) persistence.Resource {
	tb.Helper()
	created, err := store.CreateResource(context.Background(), resource)
	if err != nil {
		tb.Fatalf("failed to seed resource %s: %v", resource.ID, err)
	}
	return created
}

// SeedReservation inserts a reservation into the store, failing the test on
// error. The conflict universe is the active status set.
func SeedReservation(tb testing.TB, store *MemoryStore, reservation persistence.Reservation) persistence.Reservation {
	tb.Helper()
	created, err := store.InsertIfAvailable(context.Background(), reservation, persistence.ActiveStatuses())
	if err != nil {
		tb.Fatalf("failed to seed reservation %s: %v", reservation.ID, err)
	}
	return created
}
