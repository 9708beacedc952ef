package authz

import (
	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/identity"
)

// Permission codes. These are the stable machine keys of the RBAC graph;
// the seed command creates one Permission row per code.
const (
	PermManageWasteEntry = "manage_wasteentry"
	PermAddWasteEntry    = "add_wasteentry"
	PermEditWasteEntry   = "edit_wasteentry"
	PermDeleteWasteEntry = "delete_wasteentry"
	PermViewWasteEntry   = "view_wasteentry"

	PermViewAnalytics = "view_analytics"

	PermManageUser = "manage_user"
	PermViewUsers  = "view_users"
	PermAddUser    = "add_user"
	PermEditUser   = "edit_user"
	PermDeleteUser = "delete_user"

	PermManageTeam      = "manage_team"
	PermViewTeams       = "view_teams"
	PermAddTeam         = "add_team"
	PermEditTeam        = "edit_team"
	PermDeleteTeam      = "delete_team"
	PermViewTeamMembers = "view_team_members"

	PermManageRole = "manage_role"
	PermViewRoles  = "view_roles"
	PermAddRole    = "add_role"
	PermEditRole   = "edit_role"
	PermDeleteRole = "delete_role"

	PermViewPermissions   = "view_permissions"
	PermAssignPermissions = "assign_permissions"
)

// Requirement declares what a protected operation needs: a permission code,
// or the superuser flag itself.
type Requirement struct {
	Code          string
	SuperuserOnly bool
}

// Authorize decides allow/deny for a resolved caller against a requirement.
// Superusers are allowed unconditionally; everyone else must hold the
// permission code through their role.
func Authorize(user *identity.User, req Requirement) error {
	if user == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	if user.IsSuperuser {
		return nil
	}
	if req.SuperuserOnly {
		return apperr.Forbidden("Admin access required")
	}
	if req.Code == "" {
		return nil
	}
	if !user.HasPermission(req.Code) {
		return apperr.Forbidden("Permission denied: " + req.Code)
	}
	return nil
}
