package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wasteer/wasteer/internal/apperr"
)

const teamColumns = `id, name, description, created_at, updated_at`

func scanTeam(scan func(dest ...any) error) (*Team, error) {
	t := &Team{}
	if err := scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTeam inserts a new team.
func (s *Store) CreateTeam(ctx context.Context, name, description string) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO teams (name, description) VALUES ($1, $2)
			 RETURNING `+teamColumns, name, description,
		).Scan(dest...)
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return t, nil
}

// GetTeam retrieves a team by primary key.
func (s *Store) GetTeam(ctx context.Context, id int64) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return t, nil
}

// TeamExists reports whether a team with the given id exists.
func (s *Store) TeamExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking team existence: %w", err)
	}
	return exists, nil
}

// ListTeams returns all teams ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]*Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UpdateTeam performs a partial update on a team.
func (s *Store) UpdateTeam(ctx context.Context, id int64, in UpdateTeamInput) (*Team, error) {
	var setClauses []string
	var args []any

	if in.Name != nil {
		args = append(args, *in.Name)
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if in.Description != nil {
		args = append(args, *in.Description)
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", len(args)))
	}

	if len(setClauses) == 0 {
		return s.GetTeam(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE teams SET %s WHERE id = $%d RETURNING "+teamColumns,
		strings.Join(setClauses, ", "), len(args))

	t, err := scanTeam(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, mapConflict(err)
	}
	return t, nil
}

// teamDeleteGuard refuses deletion while the team still has members.
func teamDeleteGuard(memberCount int64) error {
	if memberCount > 0 {
		return apperr.Validation("Cannot delete team with members. Reassign members first.")
	}
	return nil
}

// DeleteTeam removes a team. Deletion is refused while the team still has
// members; the membership check and the delete share one transaction.
func (s *Store) DeleteTeam(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete team tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	if err := tx.QueryRow(ctx,
		`SELECT id FROM teams WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Team not found")
		}
		return fmt.Errorf("locking team for delete: %w", err)
	}

	var members int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE team_id = $1`, id,
	).Scan(&members); err != nil {
		return fmt.Errorf("counting team members: %w", err)
	}
	if err := teamDeleteGuard(members); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	return tx.Commit(ctx)
}

// ListTeamMembers returns the users belonging to a team, with roles loaded.
func (s *Store) ListTeamMembers(ctx context.Context, teamID int64) ([]*User, error) {
	return s.ListUsers(ctx, UserFilter{TeamID: &teamID})
}
