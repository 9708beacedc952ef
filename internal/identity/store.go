package identity

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasteer/wasteer/internal/apperr"
)

// Store provides database operations for users, teams, roles and
// permissions. All uniqueness races are settled by the database's unique
// constraints, never by application-level check-then-insert.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new identity store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// conflictMessages maps unique-constraint names to user-facing messages.
var conflictMessages = map[string]string{
	"users_username_key":   "Username already exists",
	"users_email_key":      "Email already exists",
	"teams_name_key":       "Team name already exists",
	"roles_name_key":       "Role name already exists",
	"permissions_code_key": "Permission code already exists",
}

// mapConflict converts a unique-violation error from Postgres into the
// matching Conflict error. Other errors pass through unchanged.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if msg, ok := conflictMessages[pgErr.ConstraintName]; ok {
			return apperr.Conflict(msg)
		}
		return apperr.Conflict("Already exists")
	}
	return err
}
