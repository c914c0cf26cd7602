package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/classroom-reservation/internal/booking"
	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

type resourceService interface {
	CreateResource(ctx context.Context, params booking.CreateResourceParams) (persistence.Resource, error)
	GetResource(ctx context.Context, id string) (persistence.Resource, error)
	ListActiveResources(ctx context.Context) ([]persistence.Resource, error)
	DeactivateResource(ctx context.Context, id string, principal booking.Principal) (persistence.Resource, error)
	ListAvailableResources(ctx context.Context, window interval.Interval) ([]persistence.Resource, error)
}

type availabilityService interface {
	CheckAvailability(ctx context.Context, resourceID string, window interval.Interval, excludeID string) (bool, error)
}

type ResourceHandler struct {
	service      resourceService
	availability availabilityService
	responder    responder
	logger       *slog.Logger
}

func NewResourceHandler(service resourceService, availability availabilityService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, availability: availability, responder: newResponder(base), logger: base}
}

func (h *ResourceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ResourceHandler", operation, attrs...)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "requester_id", principal.RequesterID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "requester_id", principal.RequesterID)

	resource, err := h.service.CreateResource(r.Context(), booking.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource creation failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		h.log(r.Context(), "Get", "resource_id", resourceID).ErrorContext(r.Context(), "resource lookup failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	resources, err := h.service.ListActiveResources(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "resource list failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(resources)).InfoContext(r.Context(), "resources listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

func (h *ResourceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Deactivate", "requester_id", principal.RequesterID, "resource_id", resourceID)

	if _, err := h.service.DeactivateResource(r.Context(), resourceID, principal); err != nil {
		logger.ErrorContext(r.Context(), "resource deactivation failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListAvailable returns the active resources free across the queried window.
func (h *ResourceHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	window, ok := windowFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}

	logger := h.log(r.Context(), "ListAvailable")

	resources, err := h.service.ListAvailableResources(r.Context(), window)
	if err != nil {
		logger.ErrorContext(r.Context(), "available resource list failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(resources)).InfoContext(r.Context(), "available resources listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

// CheckAvailability answers whether a single resource is free for the queried
// window. The answer is a hint; creation re-checks atomically.
func (h *ResourceHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	window, ok := windowFromQuery(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}
	excludeID := strings.TrimSpace(r.URL.Query().Get("exclude_reservation_id"))

	logger := h.log(r.Context(), "CheckAvailability", "resource_id", resourceID)

	available, err := h.availability.CheckAvailability(r.Context(), resourceID, window, excludeID)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		ResourceID: resourceID,
		Start:      window.Start.UTC().Format(time.RFC3339),
		End:        window.End.UTC().Format(time.RFC3339),
		Available:  available,
	})
}

func windowFromQuery(r *http.Request) (interval.Interval, bool) {
	start := parseTime(r.URL.Query().Get("start"))
	end := parseTime(r.URL.Query().Get("end"))
	if start.IsZero() || end.IsZero() {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: start, End: end}, true
}

type resourceRequest struct {
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Notes    *string `json:"notes"`
}

func (r resourceRequest) toInput() booking.ResourceInput {
	return booking.ResourceInput{
		Name:     strings.TrimSpace(r.Name),
		Capacity: r.Capacity,
		Notes:    r.Notes,
	}
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type availabilityResponse struct {
	ResourceID string `json:"resource_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Available  bool   `json:"available"`
}

type resourceDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	Notes     *string `json:"notes,omitempty"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toResourceDTO(resource persistence.Resource) resourceDTO {
	return resourceDTO{
		ID:        resource.ID,
		Name:      resource.Name,
		Capacity:  resource.Capacity,
		Notes:     resource.Notes,
		Active:    resource.Active,
		CreatedAt: resource.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: resource.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toResourceDTOs(resources []persistence.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}
