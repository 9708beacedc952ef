package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wasteer/wasteer/internal/apperr"
)

func (s *Store) loadRolePermissions(ctx context.Context, roleIDs []int64) (map[int64][]Permission, error) {
	if len(roleIDs) == 0 {
		return map[int64][]Permission{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT rp.role_id, p.id, p.code, p.name, p.created_at, p.updated_at
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = ANY($1)
		 ORDER BY p.code`, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("loading role permissions: %w", err)
	}
	defer rows.Close()

	perms := make(map[int64][]Permission)
	for rows.Next() {
		var roleID int64
		var p Permission
		if err := rows.Scan(&roleID, &p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning role permission row: %w", err)
		}
		perms[roleID] = append(perms[roleID], p)
	}
	return perms, rows.Err()
}

// CreateRole inserts a new role and attaches the given permissions.
func (s *Store) CreateRole(ctx context.Context, name string, permissionIDs []int64) (*Role, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning create role tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		return nil, mapConflict(err)
	}

	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, id, pid); err != nil {
			return nil, fmt.Errorf("attaching permission %d: %w", pid, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create role: %w", err)
	}
	return s.GetRole(ctx, id)
}

func (s *Store) getRole(ctx context.Context, where string, arg any) (*Role, error) {
	r := &Role{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE `+where, arg,
	).Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role not found")
		}
		return nil, fmt.Errorf("getting role: %w", err)
	}

	perms, err := s.loadRolePermissions(ctx, []int64{r.ID})
	if err != nil {
		return nil, err
	}
	r.Permissions = perms[r.ID]
	if r.Permissions == nil {
		r.Permissions = []Permission{}
	}
	return r, nil
}

// GetRole retrieves a role with its permission set.
func (s *Store) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.getRole(ctx, "id = $1", id)
}

// GetRoleByName retrieves a role by unique name.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.getRole(ctx, "name = $1", name)
}

// ListRoles returns all roles with their permission sets, ordered by name.
func (s *Store) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []*Role{}
	var ids []int64
	for rows.Next() {
		r := &Role{}
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning role row: %w", err)
		}
		roles = append(roles, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	perms, err := s.loadRolePermissions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		r.Permissions = perms[r.ID]
		if r.Permissions == nil {
			r.Permissions = []Permission{}
		}
	}
	return roles, nil
}

// UpdateRole renames a role and/or replaces its permission set.
func (s *Store) UpdateRole(ctx context.Context, id int64, in UpdateRoleInput) (*Role, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning update role tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var setClauses []string
	var args []any
	if in.Name != nil {
		args = append(args, *in.Name)
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", len(args)))
	}
	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	tag, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE roles SET %s WHERE id = $%d", strings.Join(setClauses, ", "), len(args)),
		args...)
	if err != nil {
		return nil, mapConflict(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("Role not found")
	}

	if in.PermissionIDs != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return nil, fmt.Errorf("detaching permissions: %w", err)
		}
		for _, pid := range *in.PermissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`, id, pid); err != nil {
				return nil, fmt.Errorf("attaching permission %d: %w", pid, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update role: %w", err)
	}
	return s.GetRole(ctx, id)
}

// roleDeleteGuard refuses deletion while any user still references the role.
func roleDeleteGuard(inUse bool) error {
	if inUse {
		return apperr.Validation("Cannot delete role that is assigned to users")
	}
	return nil
}

// DeleteRole removes a role. Deletion is refused while any user still
// references the role.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete role tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	if err := tx.QueryRow(ctx,
		`SELECT id FROM roles WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Role not found")
		}
		return fmt.Errorf("locking role for delete: %w", err)
	}

	var inUse bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role_id = $1)`, id,
	).Scan(&inUse); err != nil {
		return fmt.Errorf("checking role references: %w", err)
	}
	if err := roleDeleteGuard(inUse); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}
	return tx.Commit(ctx)
}
