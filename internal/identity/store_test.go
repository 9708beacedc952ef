package identity

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wasteer/wasteer/internal/apperr"
)

// --- conflict mapping tests ---

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func TestMapConflictConstraintMessages(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"users_username_key", "Username already exists"},
		{"users_email_key", "Email already exists"},
		{"teams_name_key", "Team name already exists"},
		{"roles_name_key", "Role name already exists"},
		{"permissions_code_key", "Permission code already exists"},
		{"some_future_key", "Already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := mapConflict(uniqueViolation(tt.constraint))
			if got := apperr.Message(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
			if got := apperr.Status(err); got != http.StatusConflict {
				t.Errorf("status = %d, want 409", got)
			}
		})
	}
}

func TestMapConflictPassesThroughOtherErrors(t *testing.T) {
	if got := mapConflict(nil); got != nil {
		t.Errorf("mapConflict(nil) = %v, want nil", got)
	}

	plain := errors.New("connection reset")
	if got := mapConflict(plain); got != plain {
		t.Errorf("plain error should pass through, got %v", got)
	}

	// Foreign-key violations are not uniqueness conflicts.
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "users_team_id_fkey"}
	if got := mapConflict(fk); got != error(fk) {
		t.Errorf("fk violation should pass through, got %v", got)
	}
}

// --- deletion guard tests ---

func TestSuperuserDeleteGuard(t *testing.T) {
	tests := []struct {
		name        string
		isSuperuser bool
		count       int64
		wantErr     bool
	}{
		{"last superuser", true, 1, true},
		{"one of several superusers", true, 3, false},
		{"regular user", false, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := superuserDeleteGuard(tt.isSuperuser, tt.count)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("guard = %v, want nil", err)
				}
				return
			}
			if apperr.Message(err) != "Cannot delete the last admin user" {
				t.Errorf("message = %q", apperr.Message(err))
			}
			if apperr.Status(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", apperr.Status(err))
			}
		})
	}
}

func TestSuperuserDemotionGuard(t *testing.T) {
	if err := superuserDemotionGuard(true, 2); err != nil {
		t.Errorf("demoting one of two superusers should pass, got %v", err)
	}
	if err := superuserDemotionGuard(false, 1); err != nil {
		t.Errorf("demoting a non-superuser should pass, got %v", err)
	}

	err := superuserDemotionGuard(true, 1)
	if apperr.Message(err) != "Cannot demote the last admin user" {
		t.Errorf("message = %q", apperr.Message(err))
	}
}

func TestRoleDeleteGuard(t *testing.T) {
	if err := roleDeleteGuard(false); err != nil {
		t.Errorf("unreferenced role should pass, got %v", err)
	}

	err := roleDeleteGuard(true)
	if apperr.Message(err) != "Cannot delete role that is assigned to users" {
		t.Errorf("message = %q", apperr.Message(err))
	}
	if apperr.Status(err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apperr.Status(err))
	}
}

func TestTeamDeleteGuard(t *testing.T) {
	if err := teamDeleteGuard(0); err != nil {
		t.Errorf("empty team should pass, got %v", err)
	}

	err := teamDeleteGuard(2)
	if apperr.Message(err) != "Cannot delete team with members. Reassign members first." {
		t.Errorf("message = %q", apperr.Message(err))
	}
	if apperr.Status(err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apperr.Status(err))
	}
}
