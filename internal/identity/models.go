package identity

import "time"

// User is a registered account. Role and Permissions are loaded on every
// fetch so a revoked permission takes effect on the caller's next request.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	RoleID       int64     `json:"-"`
	TeamID       *int64    `json:"team_id"`
	Role         *Role     `json:"role,omitempty"`
	Permissions  []string  `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPermission reports whether the user's role grants the given permission
// code. Superusers hold every permission implicitly.
func (u *User) HasPermission(code string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// Role groups a set of permissions under a unique name.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is an atomic grantable capability. The code is its immutable
// identity key (e.g. "view_wasteentry").
type Permission struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Team is a tenant grouping of users and waste entries.
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateUserInput holds the fields required to create a new user.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	RoleID      int64
	TeamID      *int64
	IsSuperuser bool
}

// UpdateUserInput holds optional fields for a partial user update. SetTeam
// distinguishes "leave the team unchanged" from "set it (possibly to none)".
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	RoleID      *int64
	IsSuperuser *bool
	SetTeam     bool
	TeamID      *int64
}

// UserFilter narrows ListUsers. A role name that matches nothing simply
// yields an empty result.
type UserFilter struct {
	TeamID   *int64
	RoleName string
}

// UpdateTeamInput holds optional fields for a partial team update.
type UpdateTeamInput struct {
	Name        *string
	Description *string
}

// UpdateRoleInput holds optional fields for a partial role update. A non-nil
// PermissionIDs replaces the role's whole permission set.
type UpdateRoleInput struct {
	Name          *string
	PermissionIDs *[]int64
}
