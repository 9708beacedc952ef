package authz

// Operation names, one per protected endpoint. The router declares each
// route's requirement by looking its operation up in Requirements — a static
// table rather than a runtime registry, so the full permission surface is
// visible in one place.
const (
	OpUsersList   = "users.list"
	OpUsersGet    = "users.get"
	OpUsersEdit   = "users.edit"
	OpUsersDelete = "users.delete"

	OpTeamsCreate  = "teams.create"
	OpTeamsList    = "teams.list"
	OpTeamsGet     = "teams.get"
	OpTeamsEdit    = "teams.edit"
	OpTeamsDelete  = "teams.delete"
	OpTeamsMembers = "teams.members"

	OpRolesList   = "roles.list"
	OpRolesGet    = "roles.get"
	OpRolesCreate = "roles.create"
	OpRolesEdit   = "roles.edit"
	OpRolesDelete = "roles.delete"

	OpPermissionsList = "permissions.list"
	OpPermissionsGet  = "permissions.get"

	OpWasteAnalytics = "waste.analytics"
)

// Requirements maps every gated operation to its requirement. Operations
// absent from this table (entry create/list/get, profile, self-update) are
// authenticated-only: their narrowing happens through the visibility scope,
// not through denial. Entry update and delete are also absent because their
// rule is compound (author with the edit/delete permission, a teammate with
// manage_wasteentry, or a superuser) and lives in the waste service.
var Requirements = map[string]Requirement{
	OpUsersList:   {Code: PermViewUsers},
	OpUsersGet:    {Code: PermViewUsers},
	OpUsersEdit:   {Code: PermEditUser},
	OpUsersDelete: {Code: PermDeleteUser},

	OpTeamsCreate:  {Code: PermAddTeam},
	OpTeamsList:    {Code: PermViewTeams},
	OpTeamsGet:     {Code: PermViewTeams},
	OpTeamsEdit:    {Code: PermEditTeam},
	OpTeamsDelete:  {Code: PermDeleteTeam},
	OpTeamsMembers: {Code: PermViewTeamMembers},

	OpRolesList:   {Code: PermViewRoles},
	OpRolesGet:    {Code: PermViewRoles},
	OpRolesCreate: {Code: PermAddRole},
	OpRolesEdit:   {Code: PermEditRole},
	OpRolesDelete: {Code: PermDeleteRole},

	OpPermissionsList: {Code: PermViewPermissions},
	OpPermissionsGet:  {Code: PermViewPermissions},

	OpWasteAnalytics: {Code: PermViewAnalytics},
}
