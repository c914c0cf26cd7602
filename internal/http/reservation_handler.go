package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/classroom-reservation/internal/booking"
	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params booking.CreateReservationParams) (persistence.Reservation, error)
	RescheduleReservation(ctx context.Context, params booking.RescheduleReservationParams) (persistence.Reservation, error)
	ApproveReservation(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error)
	RejectReservation(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error)
	CancelReservation(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error)
	GetReservation(ctx context.Context, id string) (persistence.Reservation, error)
	ListReservations(ctx context.Context, params booking.ListReservationsParams) ([]persistence.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "requester_id", principal.RequesterID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "requester_id", principal.RequesterID, "resource_id", req.ResourceID)

	reservation, err := h.service.CreateReservation(r.Context(), booking.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", reservationID).ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := buildListParams(r.URL.Query())
	logger := h.log(r.Context(), "List")

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reschedule", "reservation_id", reservationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reschedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reschedule", "reservation_id", reservationID)

	reservation, err := h.service.RescheduleReservation(r.Context(), booking.RescheduleReservationParams{
		ReservationID: reservationID,
		Window: interval.Interval{
			Start: parseTime(req.Start),
			End:   parseTime(req.End),
		},
		GroupID:   req.GroupID,
		Recurring: req.Recurring,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation reschedule failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation rescheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// Approve confirms a pending reservation.
func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Approve", func(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error) {
		return h.service.ApproveReservation(ctx, id, principal)
	})
}

// Reject declines a pending reservation.
func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Reject", func(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error) {
		return h.service.RejectReservation(ctx, id, principal)
	})
}

// Cancel revokes a pending or confirmed reservation.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", func(ctx context.Context, id string, principal booking.Principal) (persistence.Reservation, error) {
		return h.service.CancelReservation(ctx, id, principal)
	})
}

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, string, booking.Principal) (persistence.Reservation, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "reservation_id", reservationID, "requester_id", principal.RequesterID)

	reservation, err := apply(r.Context(), reservationID, principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation transition failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(reservation.Status)).InfoContext(r.Context(), "reservation transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

type reservationRequest struct {
	ResourceID string  `json:"resource_id"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	GroupID    *string `json:"group_id"`
	Recurring  bool    `json:"recurring"`
}

func (r reservationRequest) toInput() booking.ReservationInput {
	return booking.ReservationInput{
		ResourceID: strings.TrimSpace(r.ResourceID),
		Window: interval.Interval{
			Start: parseTime(r.Start),
			End:   parseTime(r.End),
		},
		GroupID:   r.GroupID,
		Recurring: r.Recurring,
	}
}

type rescheduleRequest struct {
	Start     string  `json:"start"`
	End       string  `json:"end"`
	GroupID   *string `json:"group_id"`
	Recurring bool    `json:"recurring"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	ResourceID  string  `json:"resource_id"`
	RequesterID string  `json:"requester_id"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Status      string  `json:"status"`
	GroupID     *string `json:"group_id,omitempty"`
	Recurring   bool    `json:"recurring"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		Start:       reservation.Window.Start.UTC().Format(time.RFC3339),
		End:         reservation.Window.End.UTC().Format(time.RFC3339),
		Status:      string(reservation.Status),
		GroupID:     reservation.GroupID,
		Recurring:   reservation.Recurring,
		CreatedAt:   reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func buildListParams(values url.Values) booking.ListReservationsParams {
	get := func(key string) string {
		return strings.TrimSpace(values.Get(key))
	}

	params := booking.ListReservationsParams{
		ResourceID:  get("resource_id"),
		RequesterID: get("requester_id"),
		Status:      get("status"),
	}

	if after := get("starts_after"); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			params.StartsAfter = &ts
		}
	}
	if before := get("ends_before"); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			params.EndsBefore = &ts
		}
	}

	return params
}
