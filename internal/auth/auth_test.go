package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/wasteer/wasteer/internal/identity"
)

// --- mocks ---

type mockSessions struct {
	userIDs map[string]int64
}

func (m *mockSessions) LookupUserID(_ context.Context, token string) (int64, error) {
	id, ok := m.userIDs[token]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return id, nil
}

type mockUsers struct {
	users map[int64]*identity.User
	err   error
}

func (m *mockUsers) GetUserByID(_ context.Context, id int64) (*identity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

// --- HashToken tests ---

func TestHashToken_Deterministic(t *testing.T) {
	h1 := HashToken("token-abc")
	h2 := HashToken("token-abc")
	if h1 != h2 {
		t.Errorf("HashToken should be deterministic: %q != %q", h1, h2)
	}
}

func TestHashToken_DifferentInputs(t *testing.T) {
	if HashToken("token-a") == HashToken("token-b") {
		t.Error("different tokens should produce different hashes")
	}
}

func TestHashToken_Length(t *testing.T) {
	// SHA-256 produces 64 hex characters.
	if h := HashToken("anything"); len(h) != 64 {
		t.Errorf("expected hash length 64, got %d", len(h))
	}
}

// --- CheckPassword tests ---

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	if !CheckPassword(string(hash), "secret") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(string(hash), "wrong") {
		t.Error("expected mismatched password to fail")
	}
	if CheckPassword("not-a-hash", "secret") {
		t.Error("expected malformed hash to fail")
	}
}

// --- ExtractBearerToken tests ---

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := ExtractBearerToken(req); got != tt.want {
				t.Errorf("ExtractBearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Context helpers ---

func TestUserContext_RoundTrip(t *testing.T) {
	u := &identity.User{ID: 7, Username: "alice"}
	ctx := ContextWithUser(context.Background(), u)
	got := UserFromContext(ctx)
	if got == nil || got.ID != 7 {
		t.Errorf("UserFromContext() = %+v, want user 7", got)
	}
	if UserFromContext(context.Background()) != nil {
		t.Error("expected nil user from empty context")
	}
}

// --- Middleware tests ---

func TestMiddleware(t *testing.T) {
	sessions := &mockSessions{userIDs: map[string]int64{"good-token": 7}}
	users := &mockUsers{users: map[int64]*identity.User{
		7: {ID: 7, Username: "alice"},
	}}

	var gotUser *identity.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(sessions, users)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, ""},
		{"missing token", "", http.StatusUnauthorized, "Authentication required"},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized, "Invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMsg != "" {
				var body map[string]string
				_ = json.NewDecoder(rec.Body).Decode(&body)
				if body["message"] != tt.wantMsg {
					t.Errorf("message = %q, want %q", body["message"], tt.wantMsg)
				}
			}
			if tt.wantStatus == http.StatusOK && (gotUser == nil || gotUser.ID != 7) {
				t.Errorf("handler saw user %+v, want user 7", gotUser)
			}
		})
	}
}

func TestMiddleware_UserLoadFailure(t *testing.T) {
	sessions := &mockSessions{userIDs: map[string]int64{"orphan": 9}}
	users := &mockUsers{users: map[int64]*identity.User{}}

	handler := Middleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer orphan")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
