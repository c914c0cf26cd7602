package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

// ResourceService manages the classroom catalog: registration, lookup, and
// soft deletion. Resources are never hard-deleted so reservation history
// remains queryable.
type ResourceService struct {
	resources    persistence.ResourceRepository
	reservations persistence.ReservationRepository
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewResourceService wires dependencies for resource operations.
func NewResourceService(resources persistence.ResourceRepository, reservations persistence.ReservationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{
		resources:    resources,
		reservations: reservations,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource validates input and registers a new active resource for
// administrators.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource", "requester_id", params.Principal.RequesterID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if params.Input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be a positive integer")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	candidate := persistence.Resource{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Capacity:  params.Input.Capacity,
		Notes:     normalizeOptionalString(params.Input.Notes),
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	persisted, createErr := s.resources.CreateResource(ctx, candidate)
	if createErr != nil {
		err = createErr
		return
	}

	resource = persisted
	return
}

// GetResource retrieves a resource by id.
func (s *ResourceService) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if s == nil {
		return persistence.Resource{}, fmt.Errorf("ResourceService is nil")
	}
	resource, err := s.resources.GetResource(ctx, id)
	if err != nil {
		return persistence.Resource{}, mapResourceRepoError(err)
	}
	return resource, nil
}

// ListActiveResources enumerates resources currently accepting reservations.
func (s *ResourceService) ListActiveResources(ctx context.Context) ([]persistence.Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}
	resources, err := s.resources.ListResources(ctx, true)
	if err != nil {
		return nil, mapResourceRepoError(err)
	}
	return resources, nil
}

// DeactivateResource soft-deletes a resource for administrators. Deactivating
// an already inactive resource is a no-op. Existing reservations referencing
// the resource remain valid for historical queries.
func (s *ResourceService) DeactivateResource(ctx context.Context, id string, principal Principal) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DeactivateResource", "resource_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource deactivated")
	}()

	if !principal.IsAdmin {
		err = ErrForbidden
		return
	}

	persisted, deactivateErr := s.resources.DeactivateResource(ctx, id, s.now())
	if deactivateErr != nil {
		err = mapResourceRepoError(deactivateErr)
		return
	}

	resource = persisted
	return
}

// ListAvailableResources returns the active resources that have no pending or
// confirmed reservation overlapping the window.
func (s *ResourceService) ListAvailableResources(ctx context.Context, window interval.Interval) ([]persistence.Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	active, err := s.resources.ListResources(ctx, true)
	if err != nil {
		return nil, mapResourceRepoError(err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	conflicted, err := s.reservations.ConflictingResourceIDs(ctx, window, persistence.ActiveStatuses())
	if err != nil {
		return nil, mapReservationRepoError(err)
	}

	occupied := make(map[string]struct{}, len(conflicted))
	for _, id := range conflicted {
		occupied[id] = struct{}{}
	}

	available := make([]persistence.Resource, 0, len(active))
	for _, resource := range active {
		if _, ok := occupied[resource.ID]; ok {
			continue
		}
		available = append(available, resource)
	}
	if len(available) == 0 {
		return nil, nil
	}

	return available, nil
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
