package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/authz"
	"github.com/wasteer/wasteer/internal/identity"
)

// usersHandler groups user administration HTTP handlers.
type usersHandler struct {
	store *identity.Store
}

func newUsersHandler(store *identity.Store) *usersHandler {
	return &usersHandler{store: store}
}

// pathID parses the {id} URL parameter shared by the resource handlers.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// queryTeamID parses an optional team_id query parameter. Malformed values
// read as absent.
func queryTeamID(r *http.Request) *int64 {
	raw := r.URL.Query().Get("team_id")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// List handles GET /api/v1/users.
func (h *usersHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	scope, err := authz.ScopeFor(caller, authz.IntentListUsers, queryTeamID(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if scope.None {
		writeJSON(w, http.StatusOK, map[string]any{"users": []*identity.User{}})
		return
	}

	filter := identity.UserFilter{RoleName: r.URL.Query().Get("role")}
	if scope.TeamID != nil {
		filter.TeamID = scope.TeamID
	}

	users, err := h.store.ListUsers(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Get handles GET /api/v1/users/{id}.
func (h *usersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	caller := auth.UserFromContext(r.Context())
	scope, err := authz.ScopeFor(caller, authz.IntentListUsers, nil)
	if err != nil {
		writeAppError(w, err)
		return
	}

	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	// Users outside the caller's visibility read as absent.
	if !scope.All && (scope.TeamID == nil || u.TeamID == nil || *u.TeamID != *scope.TeamID) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update handles PUT /api/v1/users/{id}. Changing privilege-relevant fields
// (role, team, superuser flag) additionally requires manage_user.
func (h *usersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	var req struct {
		Username    *string `json:"username"`
		Email       *string `json:"email"`
		Password    *string `json:"password"`
		RoleID      *int64  `json:"role_id"`
		TeamID      *int64  `json:"team_id"`
		IsSuperuser *bool   `json:"is_superuser"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	caller := auth.UserFromContext(r.Context())
	privileged := req.RoleID != nil || req.TeamID != nil || req.IsSuperuser != nil
	if privileged && !caller.HasPermission(authz.PermManageUser) {
		writeMessage(w, http.StatusForbidden, "Permission denied: "+authz.PermManageUser)
		return
	}

	if req.RoleID != nil {
		if _, err := h.store.GetRole(r.Context(), *req.RoleID); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid role")
			return
		}
	}
	input := identity.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		RoleID:      req.RoleID,
		IsSuperuser: req.IsSuperuser,
	}
	if req.TeamID != nil {
		exists, err := h.store.TeamExists(r.Context(), *req.TeamID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if !exists {
			writeMessage(w, http.StatusNotFound, "Team not found")
			return
		}
		input.SetTeam = true
		input.TeamID = req.TeamID
	}

	u, err := h.store.UpdateUser(r.Context(), id, input)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    u,
	})
}

// UpdateSelf handles PUT /api/v1/users/me. Only the caller's non-privileged
// fields may change here; role, team and the superuser flag are ignored.
func (h *usersHandler) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	u, err := h.store.UpdateUser(r.Context(), caller.ID, identity.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    u,
	})
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *usersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
