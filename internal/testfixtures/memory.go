package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

// MemoryStore is an in-memory implementation of the persistence repositories.
// A single mutex guards every check-then-write pair, so it honours the same
// at-most-one-booking guarantee as the SQLite store and can back concurrency
// stress tests.
type MemoryStore struct {
	mu           sync.Mutex
	resources    map[string]persistence.Resource
	reservations map[string]persistence.Reservation
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources:    make(map[string]persistence.Resource),
		reservations: make(map[string]persistence.Reservation),
	}
}

// --- persistence.ResourceRepository ---

// CreateResource stores a new resource.
func (m *MemoryStore) CreateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resource.ID == "" {
		return persistence.Resource{}, persistence.ErrConstraintViolation
	}
	if _, ok := m.resources[resource.ID]; ok {
		return persistence.Resource{}, persistence.ErrDuplicate
	}

	m.resources[resource.ID] = cloneResource(resource)
	return cloneResource(resource), nil
}

// GetResource retrieves a resource by id.
func (m *MemoryStore) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resource, ok := m.resources[id]
	if !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return cloneResource(resource), nil
}

// ListResources returns resources ordered by name.
func (m *MemoryStore) ListResources(ctx context.Context, activeOnly bool) ([]persistence.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resources := make([]persistence.Resource, 0, len(m.resources))
	for _, resource := range m.resources {
		if activeOnly && !resource.Active {
			continue
		}
		resources = append(resources, cloneResource(resource))
	}

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Name == resources[j].Name {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].Name < resources[j].Name
	})

	return resources, nil
}

// DeactivateResource soft-deletes a resource, idempotently.
func (m *MemoryStore) DeactivateResource(ctx context.Context, id string, at time.Time) (persistence.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resource, ok := m.resources[id]
	if !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	if resource.Active {
		resource.Active = false
		resource.UpdatedAt = at
		m.resources[id] = resource
	}
	return cloneResource(resource), nil
}

// --- persistence.ReservationRepository ---

// InsertIfAvailable checks for conflicts and inserts under one lock
// acquisition, mirroring the store-level atomicity contract.
func (m *MemoryStore) InsertIfAvailable(ctx context.Context, reservation persistence.Reservation, conflictStatuses []persistence.ReservationStatus) (persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reservation.ID == "" || !reservation.Status.Valid() {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}
	if err := reservation.Window.Validate(); err != nil {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}
	if _, ok := m.reservations[reservation.ID]; ok {
		return persistence.Reservation{}, persistence.ErrDuplicate
	}
	if len(m.conflictsLocked(reservation.ResourceID, reservation.Window, conflictStatuses, "")) > 0 {
		return persistence.Reservation{}, persistence.ErrConflict
	}

	m.reservations[reservation.ID] = cloneReservation(reservation)
	return cloneReservation(reservation), nil
}

// GetReservation retrieves a reservation by id.
func (m *MemoryStore) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return cloneReservation(reservation), nil
}

// FindConflicting returns reservations overlapping the window.
func (m *MemoryStore) FindConflicting(ctx context.Context, resourceID string, window interval.Interval, statuses []persistence.ReservationStatus, excludeID string) ([]persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conflicts := m.conflictsLocked(resourceID, window, statuses, excludeID)
	sortReservations(conflicts)
	return conflicts, nil
}

// UpdateStatus performs a conditional status write.
func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, expected []persistence.ReservationStatus, next persistence.ReservationStatus, at time.Time) (persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if !statusIn(reservation.Status, expected) {
		return persistence.Reservation{}, persistence.ErrStatusMismatch
	}

	reservation.Status = next
	reservation.UpdatedAt = at
	m.reservations[id] = reservation
	return cloneReservation(reservation), nil
}

// RescheduleIfAvailable applies a window change to a still-pending
// reservation after re-checking conflicts under the same lock.
func (m *MemoryStore) RescheduleIfAvailable(ctx context.Context, id string, update persistence.ReservationUpdate, conflictStatuses []persistence.ReservationStatus, at time.Time) (persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := update.Window.Validate(); err != nil {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	reservation, ok := m.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if reservation.Status != persistence.StatusPending {
		return persistence.Reservation{}, persistence.ErrStatusMismatch
	}
	if len(m.conflictsLocked(reservation.ResourceID, update.Window, conflictStatuses, id)) > 0 {
		return persistence.Reservation{}, persistence.ErrConflict
	}

	reservation.Window = update.Window
	reservation.GroupID = update.GroupID
	reservation.Recurring = update.Recurring
	reservation.UpdatedAt = at
	m.reservations[id] = reservation
	return cloneReservation(reservation), nil
}

// ListReservations lists reservations matching the filter.
func (m *MemoryStore) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reservations []persistence.Reservation
	for _, reservation := range m.reservations {
		if filter.ResourceID != "" && reservation.ResourceID != filter.ResourceID {
			continue
		}
		if filter.RequesterID != "" && reservation.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		if filter.StartsAfter != nil && !reservation.Window.End.After(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && !reservation.Window.Start.Before(*filter.EndsBefore) {
			continue
		}
		reservations = append(reservations, cloneReservation(reservation))
	}

	sortReservations(reservations)
	return reservations, nil
}

// ConflictingResourceIDs returns ids of resources with an active reservation
// overlapping the window.
func (m *MemoryStore) ConflictingResourceIDs(ctx context.Context, window interval.Interval, statuses []persistence.ReservationStatus) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	for _, reservation := range m.reservations {
		if !statusIn(reservation.Status, statuses) {
			continue
		}
		if !reservation.Window.Overlaps(window) {
			continue
		}
		seen[reservation.ResourceID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

func (m *MemoryStore) conflictsLocked(resourceID string, window interval.Interval, statuses []persistence.ReservationStatus, excludeID string) []persistence.Reservation {
	var conflicts []persistence.Reservation
	for _, reservation := range m.reservations {
		if reservation.ResourceID != resourceID {
			continue
		}
		if excludeID != "" && reservation.ID == excludeID {
			continue
		}
		if !statusIn(reservation.Status, statuses) {
			continue
		}
		if !reservation.Window.Overlaps(window) {
			continue
		}
		conflicts = append(conflicts, cloneReservation(reservation))
	}
	return conflicts
}

func statusIn(status persistence.ReservationStatus, set []persistence.ReservationStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func sortReservations(reservations []persistence.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Window.Start.Equal(reservations[j].Window.Start) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].Window.Start.Before(reservations[j].Window.Start)
	})
}

func cloneResource(resource persistence.Resource) persistence.Resource {
	out := resource
	if resource.Notes != nil {
		notes := *resource.Notes
		out.Notes = &notes
	}
	return out
}

func cloneReservation(reservation persistence.Reservation) persistence.Reservation {
	out := reservation
	if reservation.GroupID != nil {
		groupID := *reservation.GroupID
		out.GroupID = &groupID
	}
	return out
}
