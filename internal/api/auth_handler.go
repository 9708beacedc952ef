package api

import (
	"context"
	"net/http"

	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/identity"
	"github.com/wasteer/wasteer/internal/metrics"
)

// accountStore is the identity surface the auth handlers depend on.
type accountStore interface {
	GetRole(ctx context.Context, id int64) (*identity.Role, error)
	GetRoleByName(ctx context.Context, name string) (*identity.Role, error)
	TeamExists(ctx context.Context, id int64) (bool, error)
	CreateUser(ctx context.Context, in identity.CreateUserInput) (*identity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*identity.User, error)
}

// sessionStore issues and revokes bearer-token sessions.
type sessionStore interface {
	CreateSession(ctx context.Context, userID int64) (string, *auth.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	store       accountStore
	sessions    sessionStore
	metrics     *metrics.Metrics
	defaultRole string
}

func newAuthHandler(store accountStore, sessions sessionStore, m *metrics.Metrics, defaultRole string) *authHandler {
	return &authHandler{store: store, sessions: sessions, metrics: m, defaultRole: defaultRole}
}

// Register handles POST /api/v1/auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
		RoleID   *int64 `json:"role_id"`
		TeamID   *int64 `json:"team_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	var roleID int64
	if req.RoleID == nil {
		role, err := h.store.GetRoleByName(r.Context(), h.defaultRole)
		if err != nil {
			writeAppError(w, apperr.Invariant("Default role not found"))
			return
		}
		roleID = role.ID
	} else {
		role, err := h.store.GetRole(r.Context(), *req.RoleID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid role")
			return
		}
		roleID = role.ID
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
	}

	u, err := h.store.CreateUser(r.Context(), identity.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   roleID,
		TeamID:   req.TeamID,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    u,
	})
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	u, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.metrics.IncAuthFailure("login")
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, _, err := h.sessions.CreateSession(r.Context(), u.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.metrics.IncAuthSuccess("login")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": token,
		"user":         u,
	})
}

// Logout handles POST /api/v1/auth/logout. Deleting the session invalidates
// the bearer token server-side.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.ExtractBearerToken(r); token != "" {
		_ = h.sessions.DeleteSession(r.Context(), token)
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}

// Profile handles GET /api/v1/auth/profile.
func (h *authHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
