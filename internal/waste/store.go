package waste

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasteer/wasteer/internal/apperr"
)

// Store provides database operations for waste entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const entryColumns = `id, waste_type, weight, description, timestamp, user_id, team_id, created_at, updated_at`

// Create inserts a new entry and returns it with server-generated fields
// populated.
func (s *Store) Create(ctx context.Context, e *Entry) (*Entry, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO waste_entries (waste_type, weight, description, timestamp, user_id, team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		e.WasteType, e.Weight, e.Description, e.Timestamp, e.UserID, e.TeamID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting waste entry: %w", err)
	}
	return e, nil
}

// GetByID returns a single entry by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM waste_entries WHERE id = $1`, id)

	var e Entry
	err := row.Scan(
		&e.ID, &e.WasteType, &e.Weight, &e.Description, &e.Timestamp,
		&e.UserID, &e.TeamID, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Waste entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying waste entry %d: %w", id, err)
	}
	return &e, nil
}

// Update applies a partial update to an entry. Author and team columns are
// never touched.
func (s *Store) Update(ctx context.Context, id int64, in UpdateEntryInput) (*Entry, error) {
	var setClauses []string
	var args []any

	if in.WasteType != nil {
		args = append(args, *in.WasteType)
		setClauses = append(setClauses, fmt.Sprintf("waste_type = $%d", len(args)))
	}
	if in.Weight != nil {
		args = append(args, *in.Weight)
		setClauses = append(setClauses, fmt.Sprintf("weight = $%d", len(args)))
	}
	if in.Description != nil {
		args = append(args, *in.Description)
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", len(args)))
	}
	if in.Timestamp != nil {
		args = append(args, *in.Timestamp)
		setClauses = append(setClauses, fmt.Sprintf("timestamp = $%d", len(args)))
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE waste_entries SET %s WHERE id = $%d RETURNING `+entryColumns,
		strings.Join(setClauses, ", "), len(args))

	var e Entry
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&e.ID, &e.WasteType, &e.Weight, &e.Description, &e.Timestamp,
		&e.UserID, &e.TeamID, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Waste entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("updating waste entry %d: %w", id, err)
	}
	return &e, nil
}

// Delete removes an entry by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM waste_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting waste entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Waste entry not found")
	}
	return nil
}

// List returns entries matching the query, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]*Entry, error) {
	if q.Scope.None {
		return []*Entry{}, nil
	}

	where, args := buildWhereClause(q)
	query := `SELECT ` + entryColumns + ` FROM waste_entries` + where +
		` ORDER BY timestamp DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing waste entries: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.WasteType, &e.Weight, &e.Description, &e.Timestamp,
			&e.UserID, &e.TeamID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning waste entry row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating waste entry rows: %w", err)
	}
	return entries, nil
}

// AggregateByType returns per-type totals for entries matching the query.
// Types with no matching entries produce no row.
func (s *Store) AggregateByType(ctx context.Context, q Query) ([]TypeAggregate, error) {
	if q.Scope.None {
		return []TypeAggregate{}, nil
	}

	where, args := buildWhereClause(q)
	query := `SELECT waste_type, COALESCE(SUM(weight), 0), COUNT(*)
	FROM waste_entries` + where + ` GROUP BY waste_type`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating waste entries: %w", err)
	}
	defer rows.Close()

	aggs := []TypeAggregate{}
	for rows.Next() {
		var a TypeAggregate
		if err := rows.Scan(&a.Type, &a.TotalWeight, &a.EntryCount); err != nil {
			return nil, fmt.Errorf("scanning aggregate row: %w", err)
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aggregate rows: %w", err)
	}
	return aggs, nil
}

// buildWhereClause constructs a WHERE clause and positional arguments from a
// Query. The returned string starts with " WHERE" or is empty. A None scope
// produces a clause matching no rows.
func buildWhereClause(q Query) (string, []any) {
	var conditions []string
	var args []any

	switch {
	case q.Scope.None:
		conditions = append(conditions, "false")
	case q.Scope.TeamID != nil:
		args = append(args, *q.Scope.TeamID)
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", len(args)))
	case q.Scope.UserID != nil:
		args = append(args, *q.Scope.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if q.WasteType != nil {
		args = append(args, *q.WasteType)
		conditions = append(conditions, fmt.Sprintf("waste_type = $%d", len(args)))
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
