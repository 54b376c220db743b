package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Guard wraps handlers with a command check.
type Guard interface {
	Require(command string, next http.Handler) http.Handler
}

// Middleware runs the authorizer in front of handlers.
type Middleware struct {
	authorizer *Authorizer
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(authorizer *Authorizer) *Middleware {
	return &Middleware{authorizer: authorizer}
}

// Require rejects requests whose bearer token may not run command.
// The identity is stored in the request context for next.
func (m *Middleware) Require(command string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.authorizer == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		identity, err := m.authorizer.IsUserAllowed(extractBearer(r), command)
		if err != nil {
			if errors.Is(err, ErrForbidden) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
