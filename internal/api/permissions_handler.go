package api

import (
	"net/http"

	"github.com/wasteer/wasteer/internal/identity"
)

// permissionsHandler exposes the read-only permission catalogue.
type permissionsHandler struct {
	store *identity.Store
}

func newPermissionsHandler(store *identity.Store) *permissionsHandler {
	return &permissionsHandler{store: store}
}

// List handles GET /api/v1/permissions.
func (h *permissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.store.ListPermissions(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": permissions})
}

// Get handles GET /api/v1/permissions/{id}.
func (h *permissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Permission not found")
		return
	}
	p, err := h.store.GetPermission(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
