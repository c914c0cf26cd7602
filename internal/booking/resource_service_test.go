package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/example/classroom-reservation/internal/testfixtures"
)

func newResourceService(t *testing.T, store *testfixtures.MemoryStore) *ResourceService {
	t.Helper()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("room")
	return NewResourceService(store, store, ids.NextFunc(), clock.NowFunc(), nil)
}

func TestCreateResource(t *testing.T) {
	admin := Principal{RequesterID: "admin-1", IsAdmin: true}

	t.Run("registers an active resource", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		notes := "projector on the back wall"
		created, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Name: "Room 101", Capacity: 40, Notes: &notes},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected generated resource id")
		}
		if !created.Active {
			t.Fatal("new resources must be active")
		}
		if created.Notes == nil || *created.Notes != notes {
			t.Fatalf("unexpected notes %v", created.Notes)
		}

		stored, err := store.GetResource(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("failed to read back resource: %v", err)
		}
		if stored.Name != "Room 101" || stored.Capacity != 40 {
			t.Fatalf("unexpected stored resource %+v", stored)
		}
	})

	t.Run("trims name and drops blank notes", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		blank := "   "
		created, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Name: "  Room 102  ", Capacity: 20, Notes: &blank},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.Name != "Room 102" {
			t.Fatalf("expected trimmed name, got %q", created.Name)
		}
		if created.Notes != nil {
			t.Fatalf("expected blank notes to be dropped, got %q", *created.Notes)
		}
	})

	t.Run("rejects non-admin principals", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: Principal{RequesterID: "user-1"},
			Input:     ResourceInput{Name: "Room 103", Capacity: 20},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("collects validation issues", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Name: "   ", Capacity: 0},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatal("expected name field error")
		}
		if _, ok := vErr.FieldErrors["capacity"]; !ok {
			t.Fatal("expected capacity field error")
		}
	})
}

func TestDeactivateResource(t *testing.T) {
	admin := Principal{RequesterID: "admin-1", IsAdmin: true}

	t.Run("deactivates and keeps record readable", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))

		resource, err := svc.DeactivateResource(context.Background(), "room-1", admin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resource.Active {
			t.Fatal("expected resource to be inactive")
		}

		if _, err := svc.GetResource(context.Background(), "room-1"); err != nil {
			t.Fatalf("deactivated resource must stay readable, got %v", err)
		}
	})

	t.Run("repeat deactivation is a no-op", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))

		if _, err := svc.DeactivateResource(context.Background(), "room-1", admin); err != nil {
			t.Fatalf("first deactivation failed: %v", err)
		}
		resource, err := svc.DeactivateResource(context.Background(), "room-1", admin)
		if err != nil {
			t.Fatalf("repeat deactivation must succeed, got %v", err)
		}
		if resource.Active {
			t.Fatal("expected resource to remain inactive")
		}
	})

	t.Run("rejects non-admin principals", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))

		_, err := svc.DeactivateResource(context.Background(), "room-1", Principal{RequesterID: "user-1"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown resource", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		_, err := svc.DeactivateResource(context.Background(), "missing", admin)
		if !errors.Is(err, ErrResourceNotFound) {
			t.Fatalf("expected ErrResourceNotFound, got %v", err)
		}
	})
}

func TestListActiveResources(t *testing.T) {
	store := testfixtures.NewMemoryStore()
	svc := newResourceService(t, store)
	testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))
	testfixtures.SeedResource(t, store, testfixtures.Classroom("room-2", "Room 102"))

	if _, err := svc.DeactivateResource(context.Background(), "room-2", Principal{IsAdmin: true}); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	active, err := svc.ListActiveResources(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].ID != "room-1" {
		t.Fatalf("expected only room-1 active, got %+v", active)
	}
}

func TestListAvailableResources(t *testing.T) {
	t.Run("filters occupied and inactive resources", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-2", "Room 102"))
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-3", "Room 103"))

		testfixtures.SeedReservation(t, store, testfixtures.PendingReservation("r-1", "room-1", "user-1", testfixtures.Window(2, 4)))
		if _, err := svc.DeactivateResource(context.Background(), "room-3", Principal{IsAdmin: true}); err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}

		available, err := svc.ListAvailableResources(context.Background(), testfixtures.Window(3, 5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(available) != 1 || available[0].ID != "room-2" {
			t.Fatalf("expected only room-2 available, got %+v", available)
		}
	})

	t.Run("touching windows do not occupy", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))
		testfixtures.SeedReservation(t, store, testfixtures.PendingReservation("r-1", "room-1", "user-1", testfixtures.Window(2, 4)))

		available, err := svc.ListAvailableResources(context.Background(), testfixtures.Window(4, 6))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(available) != 1 || available[0].ID != "room-1" {
			t.Fatalf("expected room-1 available for adjacent window, got %+v", available)
		}
	})

	t.Run("rejected reservations do not occupy", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)
		reservations, _ := newReservationService(t, store)
		testfixtures.SeedResource(t, store, testfixtures.Classroom("room-1", "Room 101"))
		seeded := testfixtures.SeedReservation(t, store, testfixtures.PendingReservation("r-1", "room-1", "user-1", testfixtures.Window(2, 4)))

		if _, err := reservations.RejectReservation(context.Background(), seeded.ID, Principal{RequesterID: "admin", CanApprove: true}); err != nil {
			t.Fatalf("failed to reject: %v", err)
		}

		available, err := svc.ListAvailableResources(context.Background(), testfixtures.Window(2, 4))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(available) != 1 || available[0].ID != "room-1" {
			t.Fatalf("expected room-1 freed by rejection, got %+v", available)
		}
	})

	t.Run("malformed window", func(t *testing.T) {
		store := testfixtures.NewMemoryStore()
		svc := newResourceService(t, store)

		_, err := svc.ListAvailableResources(context.Background(), testfixtures.Window(4, 2))
		if err == nil {
			t.Fatal("expected validation error for inverted window")
		}
	})
}
