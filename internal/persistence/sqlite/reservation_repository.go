package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
	"github.com/example/classroom-reservation/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using
// SQLite. Conflict re-checks and the writes they guard run inside a single
// transaction; SQLite's single-writer model makes the re-check authoritative.
type ReservationRepository struct {
	store *Store
}

// NewReservationRepository creates a SQLite-backed reservation repository.
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

// InsertIfAvailable re-checks for conflicts and inserts in one transaction.
func (r *ReservationRepository) InsertIfAvailable(ctx context.Context, reservation persistence.Reservation, conflictStatuses []persistence.ReservationStatus) (persistence.Reservation, error) {
	if reservation.ID == "" || !reservation.Status.Valid() {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}
	if err := reservation.Window.Validate(); err != nil {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := countConflictsTx(ctx, tx, reservation.ResourceID, reservation.Window, conflictStatuses, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return persistence.ErrConflict
		}

		query := `
			INSERT INTO reservations (id, resource_id, requester_id, start_time, end_time, status, group_id, recurring, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			reservation.ID,
			reservation.ResourceID,
			reservation.RequesterID,
			formatTime(reservation.Window.Start),
			formatTime(reservation.Window.End),
			string(reservation.Status),
			nullString(reservation.GroupID),
			boolToInt(reservation.Recurring),
			formatTime(reservation.CreatedAt),
			formatTime(reservation.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	return r.GetReservation(ctx, reservation.ID)
}

// GetReservation retrieves a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	query := reservationColumns + " WHERE id = ?"

	reservation, err := scanReservation(r.store.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, mapError(err)
	}

	return reservation, nil
}

// FindConflicting returns reservations overlapping the window on the resource.
func (r *ReservationRepository) FindConflicting(ctx context.Context, resourceID string, window interval.Interval, statuses []persistence.ReservationStatus, excludeID string) ([]persistence.Reservation, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders, statusValues := statusArgs(statuses)
	query := reservationColumns + `
		WHERE resource_id = ?
		  AND start_time < ?
		  AND end_time > ?
		  AND status IN (` + placeholders + `)`

	args := []any{resourceID, formatTime(window.End), formatTime(window.Start)}
	args = append(args, statusValues...)

	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// UpdateStatus conditionally moves a reservation to next when its stored
// status is one of expected.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, expected []persistence.ReservationStatus, next persistence.ReservationStatus, at time.Time) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if !next.Valid() || len(expected) == 0 {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		placeholders, statusValues := statusArgs(expected)
		args := []any{string(next), formatTime(at), id}
		args = append(args, statusValues...)

		result, err := tx.ExecContext(ctx,
			"UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status IN ("+placeholders+")",
			args...,
		)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			var current string
			err := tx.QueryRowContext(ctx, "SELECT status FROM reservations WHERE id = ?", id).Scan(&current)
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			if err != nil {
				return mapError(err)
			}
			return persistence.ErrStatusMismatch
		}
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	return r.GetReservation(ctx, id)
}

// RescheduleIfAvailable moves a still-pending reservation to a new window
// after re-checking conflicts in the same transaction.
func (r *ReservationRepository) RescheduleIfAvailable(ctx context.Context, id string, update persistence.ReservationUpdate, conflictStatuses []persistence.ReservationStatus, at time.Time) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if err := update.Window.Validate(); err != nil {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		var resourceID, current string
		err := tx.QueryRowContext(ctx, "SELECT resource_id, status FROM reservations WHERE id = ?", id).Scan(&resourceID, &current)
		if err == sql.ErrNoRows {
			return persistence.ErrNotFound
		}
		if err != nil {
			return mapError(err)
		}
		if persistence.ReservationStatus(current) != persistence.StatusPending {
			return persistence.ErrStatusMismatch
		}

		count, err := countConflictsTx(ctx, tx, resourceID, update.Window, conflictStatuses, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return persistence.ErrConflict
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE reservations SET start_time = ?, end_time = ?, group_id = ?, recurring = ?, updated_at = ? WHERE id = ? AND status = ?",
			formatTime(update.Window.Start),
			formatTime(update.Window.End),
			nullString(update.GroupID),
			boolToInt(update.Recurring),
			formatTime(at),
			id,
			string(persistence.StatusPending),
		)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrStatusMismatch
		}
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	return r.GetReservation(ctx, id)
}

// ListReservations lists reservations matching the filter, ordered by start
// time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := reservationColumns

	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ConflictingResourceIDs returns ids of resources with at least one
// reservation in the status set overlapping the window.
func (r *ReservationRepository) ConflictingResourceIDs(ctx context.Context, window interval.Interval, statuses []persistence.ReservationStatus) ([]string, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders, statusValues := statusArgs(statuses)
	query := `
		SELECT DISTINCT resource_id
		FROM reservations
		WHERE start_time < ? AND end_time > ? AND status IN (` + placeholders + `)
		ORDER BY resource_id ASC`

	args := []any{formatTime(window.End), formatTime(window.Start)}
	args = append(args, statusValues...)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return ids, nil
}

const reservationColumns = `
	SELECT id, resource_id, requester_id, start_time, end_time, status, group_id, recurring, created_at, updated_at
	FROM reservations`

// countConflictsTx runs the overlap count inside tx so callers can pair it
// with a guarded write. Half-open semantics: start_time < windowEnd AND
// end_time > windowStart.
func countConflictsTx(ctx context.Context, tx *sql.Tx, resourceID string, window interval.Interval, statuses []persistence.ReservationStatus, excludeID string) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	placeholders, statusValues := statusArgs(statuses)
	query := `
		SELECT COUNT(1)
		FROM reservations
		WHERE resource_id = ?
		  AND start_time < ?
		  AND end_time > ?
		  AND status IN (` + placeholders + `)`

	args := []any{resourceID, formatTime(window.End), formatTime(window.Start)}
	args = append(args, statusValues...)

	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startTime, endTime, status, createdAt, updatedAt string
	var groupID sql.NullString
	var recurring int

	if err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.RequesterID,
		&startTime,
		&endTime,
		&status,
		&groupID,
		&recurring,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	reservation.Status = persistence.ReservationStatus(status)
	reservation.GroupID = fromNullString(groupID)
	reservation.Recurring = recurring != 0

	var err error
	if reservation.Window.Start, err = parseTime(startTime); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if reservation.Window.End, err = parseTime(endTime); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return reservation, nil
}

func collectReservations(rows *sql.Rows) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, mapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}
