package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/classroom-reservation/internal/booking"
	"github.com/example/classroom-reservation/internal/logging"
)

// Identity headers asserted by the authenticating proxy in front of the
// service. The service trusts them as-is; token validation happens upstream.
const (
	headerRequesterID = "X-Requester-Id"
	headerRoles       = "X-Requester-Roles"

	roleApprover = "approver"
	roleAdmin    = "admin"
)

// RequireIdentity rejects requests that carry no requester identity and
// attaches the extracted principal to the request context otherwise.
func RequireIdentity(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requesterID := strings.TrimSpace(r.Header.Get(headerRequesterID))
			if requesterID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
				return
			}

			principal := booking.Principal{RequesterID: requesterID}
			for _, role := range strings.Split(r.Header.Get(headerRoles), ",") {
				switch strings.TrimSpace(strings.ToLower(role)) {
				case roleApprover:
					principal.CanApprove = true
				case roleAdmin:
					principal.IsAdmin = true
					principal.CanApprove = true
				}
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request-scoped logger to the context and records
// request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
