package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("Missing required fields"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("Authentication required"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Access denied"), http.StatusForbidden},
		{"not found", NotFound("User not found"), http.StatusNotFound},
		{"conflict", Conflict("Username already exists"), http.StatusConflict},
		{"invariant", Invariant("Default role not found"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Team not found", Message(NotFound("Team not found")))

	// Unclassified errors never leak internals to clients.
	assert.Equal(t, "Internal server error", Message(errors.New("pq: connection refused")))
}

func TestStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("deleting user: %w", Conflict("Cannot delete the last admin user"))
	assert.Equal(t, http.StatusConflict, Status(wrapped))
	assert.Equal(t, "Cannot delete the last admin user", Message(wrapped))
}
