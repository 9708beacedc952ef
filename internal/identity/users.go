package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wasteer/wasteer/internal/apperr"
)

// userColumns selects a user joined with its role and the role's permission
// set. Permissions are aggregated in parallel arrays and zipped after
// scanning; reading them fresh on every fetch is what keeps authorization
// decisions current.
const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.is_superuser,
	u.role_id, u.team_id, u.created_at, u.updated_at,
	r.name, r.created_at, r.updated_at,
	COALESCE(array_agg(p.id ORDER BY p.code) FILTER (WHERE p.id IS NOT NULL), '{}'),
	COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.id IS NOT NULL), '{}'),
	COALESCE(array_agg(p.name ORDER BY p.code) FILTER (WHERE p.id IS NOT NULL), '{}')`

const userJoins = `
	FROM users u
	JOIN roles r ON r.id = u.role_id
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	LEFT JOIN permissions p ON p.id = rp.permission_id`

const userGroupBy = ` GROUP BY u.id, r.id`

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	role := &Role{}
	var permIDs []int64
	var permCodes, permNames []string

	err := scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSuperuser,
		&u.RoleID, &u.TeamID, &u.CreatedAt, &u.UpdatedAt,
		&role.Name, &role.CreatedAt, &role.UpdatedAt,
		&permIDs, &permCodes, &permNames,
	)
	if err != nil {
		return nil, err
	}

	role.ID = u.RoleID
	role.Permissions = make([]Permission, len(permCodes))
	u.Permissions = make([]string, len(permCodes))
	for i, code := range permCodes {
		role.Permissions[i] = Permission{ID: permIDs[i], Code: code, Name: permNames[i]}
		u.Permissions[i] = code
	}
	u.Role = role
	return u, nil
}

// CreateUser inserts a new user with a bcrypt-hashed password and returns it
// fully loaded.
func (s *Store) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, is_superuser, role_id, team_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.Username, in.Email, string(hash), in.IsSuperuser, in.RoleID, in.TeamID,
	).Scan(&id)
	if err != nil {
		return nil, mapConflict(err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT`+userColumns+userJoins+` WHERE `+where+userGroupBy, arg,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by primary key, with role and permissions.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "u.id = $1", id)
}

// GetUserByUsername retrieves a user by unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "u.username = $1", username)
}

// GetUserByEmail retrieves a user by unique email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "u.email = $1", email)
}

// ListUsers returns users matching the filter, ordered by creation time.
func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]*User, error) {
	var conditions []string
	var args []any

	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		conditions = append(conditions, fmt.Sprintf("u.team_id = $%d", len(args)))
	}
	if filter.RoleName != "" {
		args = append(args, filter.RoleName)
		conditions = append(conditions, fmt.Sprintf("r.name = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT`+userColumns+userJoins+where+userGroupBy+` ORDER BY u.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// superuserDeleteGuard refuses removal of the last remaining superuser.
func superuserDeleteGuard(isSuperuser bool, superuserCount int64) error {
	if isSuperuser && superuserCount <= 1 {
		return apperr.Validation("Cannot delete the last admin user")
	}
	return nil
}

// superuserDemotionGuard refuses clearing the superuser flag on the last
// remaining superuser.
func superuserDemotionGuard(isSuperuser bool, superuserCount int64) error {
	if isSuperuser && superuserCount <= 1 {
		return apperr.Validation("Cannot demote the last admin user")
	}
	return nil
}

// UpdateUser performs a partial update and returns the refreshed user.
// Demoting the last remaining superuser is refused; like DeleteUser, the
// check and the write share one transaction.
func (s *Store) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	var setClauses []string
	var args []any

	add := func(col string, val any) {
		args = append(args, val)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Username != nil {
		add("username", *in.Username)
	}
	if in.Email != nil {
		add("email", *in.Email)
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		add("password_hash", string(hash))
	}
	if in.RoleID != nil {
		add("role_id", *in.RoleID)
	}
	if in.IsSuperuser != nil {
		add("is_superuser", *in.IsSuperuser)
	}
	if in.SetTeam {
		add("team_id", in.TeamID)
	}

	if len(setClauses) == 0 {
		return s.GetUserByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), len(args))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning update user tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var isSuperuser bool
	err = tx.QueryRow(ctx,
		`SELECT is_superuser FROM users WHERE id = $1 FOR UPDATE`, id,
	).Scan(&isSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("locking user for update: %w", err)
	}

	if in.IsSuperuser != nil && !*in.IsSuperuser && isSuperuser {
		var count int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE is_superuser`,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("counting superusers: %w", err)
		}
		if err := superuserDemotionGuard(isSuperuser, count); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, mapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes a user. Deleting the last remaining superuser is
// refused; the check and the delete share one transaction so concurrent
// deletes cannot drop the final superuser.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete user tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var isSuperuser bool
	err = tx.QueryRow(ctx,
		`SELECT is_superuser FROM users WHERE id = $1 FOR UPDATE`, id,
	).Scan(&isSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		return fmt.Errorf("locking user for delete: %w", err)
	}

	if isSuperuser {
		var count int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE is_superuser`,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting superusers: %w", err)
		}
		if err := superuserDeleteGuard(isSuperuser, count); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return tx.Commit(ctx)
}

// CountSuperusers returns the number of superuser accounts.
func (s *Store) CountSuperusers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_superuser`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting superusers: %w", err)
	}
	return count, nil
}
