package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wasteer/wasteer/internal/identity"
)

type contextKey int

const userContextKey contextKey = iota

// ContextWithUser returns a new context carrying the given user.
func ContextWithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the user from the context, or nil if not present.
func UserFromContext(ctx context.Context) *identity.User {
	user, _ := ctx.Value(userContextKey).(*identity.User)
	return user
}

// UserLoader loads a user by id with role and permissions attached.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*identity.User, error)
}

// SessionResolver resolves a plaintext bearer token to a user id.
type SessionResolver interface {
	LookupUserID(ctx context.Context, token string) (int64, error)
}

// Middleware returns middleware that authenticates requests using an opaque
// bearer token. The session yields only the user id; the user, role and
// permission set are loaded fresh on every request.
func Middleware(sessions SessionResolver, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				writeUnauthenticated(w, "Authentication required")
				return
			}

			userID, err := sessions.LookupUserID(r.Context(), token)
			if err != nil {
				writeUnauthenticated(w, "Invalid or expired token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil {
				writeUnauthenticated(w, "Invalid or expired token")
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
