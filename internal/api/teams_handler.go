package api

import (
	"net/http"

	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/identity"
)

// teamsHandler groups team administration HTTP handlers.
type teamsHandler struct {
	store *identity.Store
}

func newTeamsHandler(store *identity.Store) *teamsHandler {
	return &teamsHandler{store: store}
}

// checkTeamAccess enforces the single-team visibility rule: non-superusers
// may only address their own team.
func checkTeamAccess(caller *identity.User, teamID int64) bool {
	if caller.IsSuperuser {
		return true
	}
	return caller.TeamID != nil && *caller.TeamID == teamID
}

// Create handles POST /api/v1/teams.
func (h *teamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Team name is required")
		return
	}

	team, err := h.store.CreateTeam(r.Context(), req.Name, req.Description)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Team created successfully",
		"team":    team,
	})
}

// List handles GET /api/v1/teams. Superusers see every team; everyone else
// sees at most their own.
func (h *teamsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())

	if caller.IsSuperuser {
		teams, err := h.store.ListTeams(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
		return
	}

	teams := []*identity.Team{}
	if caller.TeamID != nil {
		team, err := h.store.GetTeam(r.Context(), *caller.TeamID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		teams = append(teams, team)
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// Get handles GET /api/v1/teams/{id}.
func (h *teamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Team not found")
		return
	}
	caller := auth.UserFromContext(r.Context())
	if !checkTeamAccess(caller, id) {
		writeMessage(w, http.StatusForbidden, "Access denied for this team")
		return
	}

	team, err := h.store.GetTeam(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// Update handles PUT /api/v1/teams/{id}.
func (h *teamsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Team not found")
		return
	}
	caller := auth.UserFromContext(r.Context())
	if !checkTeamAccess(caller, id) {
		writeMessage(w, http.StatusForbidden, "Access denied for this team")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	team, err := h.store.UpdateTeam(r.Context(), id, identity.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Team updated successfully",
		"team":    team,
	})
}

// Delete handles DELETE /api/v1/teams/{id}.
func (h *teamsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Team not found")
		return
	}
	if err := h.store.DeleteTeam(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Team deleted successfully")
}

// Members handles GET /api/v1/teams/{id}/members.
func (h *teamsHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Team not found")
		return
	}
	caller := auth.UserFromContext(r.Context())
	if !checkTeamAccess(caller, id) {
		writeMessage(w, http.StatusForbidden, "Access denied for this team")
		return
	}

	if _, err := h.store.GetTeam(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	members, err := h.store.ListTeamMembers(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}
