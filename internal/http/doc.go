// Package http provides HTTP handlers and middleware for the reservation API.
//
// The router exposes the following endpoints:
//   - GET /reservations, POST /reservations: list and create reservations,
//     exchanging the `reservationDTO` payload defined in reservation_handler.go.
//     Listing accepts resource_id, requester_id, status, starts_after, and
//     ends_before query parameters.
//   - GET /reservations/{id}, PUT /reservations/{id}: fetch a reservation and
//     reschedule a still-pending one.
//   - PUT /reservations/{id}/approve, PUT /reservations/{id}/reject: approver
//     decisions over pending reservations.
//   - PUT /reservations/{id}/revoke: cancels a pending or confirmed
//     reservation.
//   - GET /resources, POST /resources, GET /resources/{id},
//     DELETE /resources/{id}: resource catalog endpoints exchanging the
//     `resourceDTO` payload defined in resource_handler.go. Mutations require
//     the admin role; DELETE soft-deletes.
//   - GET /resources/available?start=&end=: active resources free across the
//     window.
//   - GET /resources/{id}/availability?start=&end=: non-binding availability
//     hint for a single resource.
//
// Window timestamps are RFC 3339 with whole-second precision; finer-grained
// bounds are rejected with 422.
//
// Identity arrives via the X-Requester-Id and X-Requester-Roles headers set by
// the authenticating proxy; requests without an identity are rejected with 401.
package http
