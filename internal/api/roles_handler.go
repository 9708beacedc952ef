package api

import (
	"net/http"

	"github.com/wasteer/wasteer/internal/identity"
)

// rolesHandler groups role administration HTTP handlers.
type rolesHandler struct {
	store *identity.Store
}

func newRolesHandler(store *identity.Store) *rolesHandler {
	return &rolesHandler{store: store}
}

// List handles GET /api/v1/roles.
func (h *rolesHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

// Get handles GET /api/v1/roles/{id}.
func (h *rolesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Role not found")
		return
	}
	role, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// Create handles POST /api/v1/roles.
func (h *rolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string  `json:"name" validate:"required"`
		PermissionIDs []int64 `json:"permission_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Role name is required")
		return
	}

	role, err := h.store.CreateRole(r.Context(), req.Name, req.PermissionIDs)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Role created successfully",
		"role":    role,
	})
}

// Update handles PUT /api/v1/roles/{id}. A non-null permission_ids list
// replaces the role's whole permission set.
func (h *rolesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Role not found")
		return
	}

	var req struct {
		Name          *string  `json:"name"`
		PermissionIDs *[]int64 `json:"permission_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	role, err := h.store.UpdateRole(r.Context(), id, identity.UpdateRoleInput{
		Name:          req.Name,
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Role updated successfully",
		"role":    role,
	})
}

// Delete handles DELETE /api/v1/roles/{id}.
func (h *rolesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Role not found")
		return
	}
	if err := h.store.DeleteRole(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Role deleted successfully")
}
