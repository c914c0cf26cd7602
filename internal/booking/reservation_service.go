package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

// ReservationService orchestrates validation, availability checking, and
// lifecycle transitions for reservations. It holds no mutable domain state;
// the store is the single source of truth and every mutation is one atomic
// store operation.
type ReservationService struct {
	reservations persistence.ReservationRepository
	resources    persistence.ResourceRepository
	cache        *availabilityCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// ReservationServiceOptions tunes optional service behaviour.
type ReservationServiceOptions struct {
	Logger               *slog.Logger
	AvailabilityCacheTTL time.Duration
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations persistence.ReservationRepository, resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time, opts ReservationServiceOptions) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		cache:        newAvailabilityCache(opts.AvailabilityCacheTTL, 0, now),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(opts.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates the request, confirms the resource accepts
// bookings, and inserts through the store's atomic conflict re-check. The
// conflict universe is the set of pending and confirmed reservations.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"resource_id", params.Input.ResourceID,
		"requester_id", params.Principal.RequesterID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if err = params.Input.Window.Validate(); err != nil {
		return
	}

	resource, getErr := s.resources.GetResource(ctx, params.Input.ResourceID)
	if getErr != nil {
		err = mapResourceRepoError(getErr)
		return
	}
	if !resource.Active {
		err = ErrResourceInactive
		return
	}

	createdAt := s.now()
	candidate := persistence.Reservation{
		ID:          s.idGenerator(),
		ResourceID:  params.Input.ResourceID,
		RequesterID: params.Principal.RequesterID,
		Window:      params.Input.Window,
		Status:      persistence.StatusPending,
		GroupID:     params.Input.GroupID,
		Recurring:   params.Input.Recurring,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	persisted, insertErr := s.reservations.InsertIfAvailable(ctx, candidate, persistence.ActiveStatuses())
	if insertErr != nil {
		err = mapReservationRepoError(insertErr)
		return
	}

	s.cache.Invalidate()
	reservation = persisted
	return
}

// RescheduleReservation moves a pending reservation to a new window. The
// read-side availability check gives fast negative feedback; the store's
// atomic re-check is what actually guards the commit.
func (s *ReservationService) RescheduleReservation(ctx context.Context, params RescheduleReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RescheduleReservation", "reservation_id", params.ReservationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation rescheduled", "window", reservation.Window.String())
	}()

	if err = params.Window.Validate(); err != nil {
		return
	}

	existing, getErr := s.reservations.GetReservation(ctx, params.ReservationID)
	if getErr != nil {
		err = mapReservationRepoError(getErr)
		return
	}
	if existing.Status != persistence.StatusPending {
		// A confirmed reservation cannot be silently moved; it must be
		// cancelled and recreated.
		err = ErrInvalidTransition
		return
	}

	conflicts, findErr := s.reservations.FindConflicting(ctx, existing.ResourceID, params.Window, persistence.ActiveStatuses(), existing.ID)
	if findErr != nil {
		err = mapReservationRepoError(findErr)
		return
	}
	if len(conflicts) > 0 {
		err = ErrConflict
		return
	}

	update := persistence.ReservationUpdate{
		Window:    params.Window,
		GroupID:   params.GroupID,
		Recurring: params.Recurring,
	}
	persisted, updErr := s.reservations.RescheduleIfAvailable(ctx, params.ReservationID, update, persistence.ActiveStatuses(), s.now())
	if updErr != nil {
		if errors.Is(updErr, persistence.ErrStatusMismatch) {
			err = ErrInvalidTransition
			return
		}
		err = mapReservationRepoError(updErr)
		return
	}

	s.cache.Invalidate()
	reservation = persisted
	return
}

// ApproveReservation confirms a pending reservation. The approval capability
// is an external authorization decision carried on the principal.
func (s *ReservationService) ApproveReservation(ctx context.Context, id string, principal Principal) (persistence.Reservation, error) {
	return s.transition(ctx, "ApproveReservation", id, principal, persistence.StatusConfirmed, true)
}

// RejectReservation declines a pending reservation.
func (s *ReservationService) RejectReservation(ctx context.Context, id string, principal Principal) (persistence.Reservation, error) {
	return s.transition(ctx, "RejectReservation", id, principal, persistence.StatusRejected, true)
}

// CancelReservation revokes a pending or confirmed reservation. Cancelling an
// already terminal reservation fails with ErrAlreadyTerminal rather than
// silently succeeding twice.
func (s *ReservationService) CancelReservation(ctx context.Context, id string, principal Principal) (persistence.Reservation, error) {
	return s.transition(ctx, "CancelReservation", id, principal, persistence.StatusCancelled, false)
}

// transition commits a lifecycle move through the store's conditional write,
// so a move observed as legal at check time cannot silently become illegal by
// the time it commits.
func (s *ReservationService) transition(ctx context.Context, operation, id string, principal Principal, target persistence.ReservationStatus, requireApproval bool) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation, "reservation_id", id, "target_status", string(target))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation transitioned")
	}()

	if requireApproval && !principal.CanApprove {
		err = ErrForbidden
		return
	}

	expected := transitionSources(target)
	persisted, updErr := s.reservations.UpdateStatus(ctx, id, expected, target, s.now())
	if updErr != nil {
		if errors.Is(updErr, persistence.ErrStatusMismatch) {
			err = s.mismatchError(ctx, id, target)
			return
		}
		err = mapReservationRepoError(updErr)
		return
	}

	if target != persistence.StatusConfirmed {
		// Rejection and cancellation free the slot.
		s.cache.Invalidate()
	}
	reservation = persisted
	return
}

// mismatchError translates a lost conditional write into the caller-visible
// outcome: AlreadyTerminal for double cancellation, InvalidTransition for
// every other illegal move.
func (s *ReservationService) mismatchError(ctx context.Context, id string, target persistence.ReservationStatus) error {
	current, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return mapReservationRepoError(err)
	}
	if target == persistence.StatusCancelled && current.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	return ErrInvalidTransition
}

// CheckAvailability reports whether the window is free of active reservations
// on the resource. This is a hint for fast user feedback; the authoritative
// check lives in the store's atomic operations.
func (s *ReservationService) CheckAvailability(ctx context.Context, resourceID string, window interval.Interval, excludeID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("ReservationService is nil")
	}
	if err := window.Validate(); err != nil {
		return false, err
	}

	key := availabilityCacheKey(resourceID, window, excludeID)
	if available, ok := s.cache.Get(key); ok {
		return available, nil
	}

	conflicts, err := s.reservations.FindConflicting(ctx, resourceID, window, persistence.ActiveStatuses(), excludeID)
	if err != nil {
		return false, mapReservationRepoError(err)
	}

	available := len(conflicts) == 0
	s.cache.Store(key, available)
	return available, nil
}

// GetReservation retrieves a single reservation.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if s == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return persistence.Reservation{}, mapReservationRepoError(err)
	}
	return reservation, nil
}

// ListReservations enumerates reservations matching the filter.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	filter := persistence.ReservationFilter{
		ResourceID:  params.ResourceID,
		RequesterID: params.RequesterID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	}
	if params.Status != "" {
		status := persistence.ReservationStatus(params.Status)
		if !status.Valid() {
			vErr := &ValidationError{}
			vErr.add("status", "unknown reservation status")
			return nil, vErr
		}
		filter.Status = &status
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	return reservations, nil
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrReservationNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrConstraintViolation):
		return interval.ErrInvalidInterval
	}
	return err
}

func mapResourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrResourceNotFound
	}
	return err
}
