package authz

import (
	"testing"

	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/identity"
)

func superuser() *identity.User {
	return &identity.User{ID: 1, Username: "admin", IsSuperuser: true}
}

func manager(teamID *int64) *identity.User {
	return &identity.User{
		ID:          2,
		Username:    "manager",
		TeamID:      teamID,
		Permissions: []string{PermManageWasteEntry, PermViewAnalytics, PermViewTeams, PermViewTeamMembers, PermViewUsers},
	}
}

func employee(teamID *int64) *identity.User {
	return &identity.User{
		ID:          3,
		Username:    "employee",
		TeamID:      teamID,
		Permissions: []string{PermAddWasteEntry, PermViewWasteEntry},
	}
}

func int64Ptr(v int64) *int64 { return &v }

// --- Authorize tests ---

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		user    *identity.User
		req     Requirement
		wantErr string
	}{
		{"nil user", nil, Requirement{Code: PermViewUsers}, "Authentication required"},
		{"superuser bypasses code", superuser(), Requirement{Code: PermManageRole}, ""},
		{"superuser passes superuser-only", superuser(), Requirement{SuperuserOnly: true}, ""},
		{"non-superuser denied superuser-only", manager(int64Ptr(1)), Requirement{SuperuserOnly: true}, "Admin access required"},
		{"holder allowed", manager(int64Ptr(1)), Requirement{Code: PermViewUsers}, ""},
		{"missing permission", employee(int64Ptr(1)), Requirement{Code: PermViewUsers}, "Permission denied: view_users"},
		{"empty requirement is authenticated-only", employee(int64Ptr(1)), Requirement{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Authorize() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Authorize() = nil, want error")
			}
			if got := apperr.Message(err); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeStatusCodes(t *testing.T) {
	if err := Authorize(nil, Requirement{}); apperr.Status(err) != 401 {
		t.Errorf("nil user status = %d, want 401", apperr.Status(err))
	}
	err := Authorize(employee(int64Ptr(1)), Requirement{Code: PermViewUsers})
	if apperr.Status(err) != 403 {
		t.Errorf("missing permission status = %d, want 403", apperr.Status(err))
	}
}

// --- ScopeFor tests ---

func TestScopeForSuperuser(t *testing.T) {
	s, err := ScopeFor(superuser(), IntentListEntries, nil)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if !s.All {
		t.Errorf("expected All scope, got %+v", s)
	}

	s, err = ScopeFor(superuser(), IntentAggregate, int64Ptr(5))
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if s.TeamID == nil || *s.TeamID != 5 {
		t.Errorf("expected team scope 5, got %+v", s)
	}
}

func TestScopeForManager(t *testing.T) {
	s, err := ScopeFor(manager(int64Ptr(3)), IntentListEntries, nil)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if s.TeamID == nil || *s.TeamID != 3 {
		t.Errorf("expected own-team scope, got %+v", s)
	}

	// Explicit team filters from non-superusers are ignored.
	s, err = ScopeFor(manager(int64Ptr(3)), IntentAggregate, int64Ptr(9))
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if s.TeamID == nil || *s.TeamID != 3 {
		t.Errorf("explicit filter should be ignored, got %+v", s)
	}
}

func TestScopeForManagerWithoutTeam(t *testing.T) {
	s, err := ScopeFor(manager(nil), IntentListEntries, nil)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if !s.None {
		t.Errorf("expected empty scope, got %+v", s)
	}
}

func TestScopeForEmployee(t *testing.T) {
	u := employee(int64Ptr(3))

	s, err := ScopeFor(u, IntentListEntries, nil)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if s.UserID == nil || *s.UserID != u.ID {
		t.Errorf("expected self scope, got %+v", s)
	}

	if _, err := ScopeFor(u, IntentListUsers, nil); apperr.Message(err) != "Access denied" {
		t.Errorf("user listing error = %v, want Access denied", err)
	}
	if _, err := ScopeFor(u, IntentAggregate, nil); apperr.Message(err) != "Manager access required" {
		t.Errorf("aggregate error = %v, want Manager access required", err)
	}
}

func TestScopeForNilUser(t *testing.T) {
	_, err := ScopeFor(nil, IntentListEntries, nil)
	if apperr.Status(err) != 401 {
		t.Errorf("status = %d, want 401", apperr.Status(err))
	}
}

// --- Requirements table ---

func TestRequirementsCoverGatedOperations(t *testing.T) {
	ops := []string{
		OpUsersList, OpUsersGet, OpUsersEdit, OpUsersDelete,
		OpTeamsCreate, OpTeamsList, OpTeamsGet, OpTeamsEdit, OpTeamsDelete, OpTeamsMembers,
		OpRolesList, OpRolesGet, OpRolesCreate, OpRolesEdit, OpRolesDelete,
		OpPermissionsList, OpPermissionsGet,
		OpWasteAnalytics,
	}
	for _, op := range ops {
		req, ok := Requirements[op]
		if !ok {
			t.Errorf("operation %q has no requirement", op)
			continue
		}
		if req.Code == "" && !req.SuperuserOnly {
			t.Errorf("operation %q has an empty requirement", op)
		}
	}
}
