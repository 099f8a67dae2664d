package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/freshmart/grocery-api/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// principalFrom returns the authenticated caller set by requireAuth.
func principalFrom(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok
}

// loggingMiddleware logs each request with its duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}

// requireAuth verifies the bearer token and, when roles are given, checks
// the caller holds one of them. The resolved principal is stored on the
// request context.
func (s *Server) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				s.respondWithError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
				return
			}

			principal, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				s.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if len(roles) > 0 && !hasRole(principal.Role, roles) {
				s.respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
