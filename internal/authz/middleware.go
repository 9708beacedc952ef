package authz

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/auth"
)

// Require returns middleware enforcing the requirement declared for the
// given operation. It panics on an unknown operation so a route wired to a
// missing table entry fails at startup, not at request time.
func Require(op string) func(http.Handler) http.Handler {
	req, ok := Requirements[op]
	if !ok {
		panic(fmt.Sprintf("authz: no requirement declared for operation %q", op))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if err := Authorize(user, req); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(apperr.Status(err))
				_ = json.NewEncoder(w).Encode(map[string]string{"message": apperr.Message(err)})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
