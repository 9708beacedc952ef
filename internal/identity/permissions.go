package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wasteer/wasteer/internal/apperr"
)

// ListPermissions returns all permissions ordered by code.
func (s *Store) ListPermissions(ctx context.Context) ([]*Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, name, created_at, updated_at FROM permissions ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	perms := []*Permission{}
	for rows.Next() {
		p := &Permission{}
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning permission row: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission retrieves a permission by primary key.
func (s *Store) GetPermission(ctx context.Context, id int64) (*Permission, error) {
	p := &Permission{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, code, name, created_at, updated_at FROM permissions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Permission not found")
		}
		return nil, fmt.Errorf("getting permission: %w", err)
	}
	return p, nil
}

// EnsurePermission upserts a permission by its immutable code. Used by the
// seed command; permissions are never mutated through the API.
func (s *Store) EnsurePermission(ctx context.Context, code, name string) (*Permission, error) {
	p := &Permission{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO permissions (code, name) VALUES ($1, $2)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		 RETURNING id, code, name, created_at, updated_at`,
		code, name,
	).Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensuring permission %q: %w", code, err)
	}
	return p, nil
}
