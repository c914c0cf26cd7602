package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/classroom-reservation/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	store *Store
}

// NewResourceRepository creates a SQLite-backed resource repository.
func NewResourceRepository(store *Store) *ResourceRepository {
	return &ResourceRepository{store: store}
}

// CreateResource inserts a new resource.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	if resource.ID == "" {
		return persistence.Resource{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (id, name, capacity, notes, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		resource.ID,
		resource.Name,
		resource.Capacity,
		nullString(resource.Notes),
		boolToInt(resource.Active),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}

	return r.GetResource(ctx, resource.ID)
}

// GetResource retrieves a resource by id.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, capacity, notes, active, created_at, updated_at
		FROM resources
		WHERE id = ?
	`

	resource, err := scanResource(r.store.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Resource{}, persistence.ErrNotFound
		}
		return persistence.Resource{}, mapError(err)
	}

	return resource, nil
}

// ListResources returns resources ordered by name, optionally restricted to
// active ones.
func (r *ResourceRepository) ListResources(ctx context.Context, activeOnly bool) ([]persistence.Resource, error) {
	query := `
		SELECT id, name, capacity, notes, active, created_at, updated_at
		FROM resources
	`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, mapError(err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return resources, nil
}

// DeactivateResource soft-deletes a resource. Deactivating an already
// inactive resource leaves it unchanged.
func (r *ResourceRepository) DeactivateResource(ctx context.Context, id string, at time.Time) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE resources SET active = 0, updated_at = ? WHERE id = ? AND active = 1",
			formatTime(at), id,
		)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			// Either already inactive (fine) or missing (error).
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM resources WHERE id = ?", id).Scan(&exists); err != nil {
				return mapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		return persistence.Resource{}, err
	}

	return r.GetResource(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var notes sql.NullString
	var active int
	var createdAt, updatedAt string

	if err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Capacity,
		&notes,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Resource{}, err
	}

	resource.Notes = fromNullString(notes)
	resource.Active = active != 0

	var err error
	if resource.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if resource.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return resource, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
