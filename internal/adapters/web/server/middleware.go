package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

type contextKey int

const userContextKey contextKey = iota

// requireAuth validates the bearer token against the auth service and
// injects the resolved user into the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := s.Auth.ValidateToken(r.Context(), token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// requireOperator additionally rejects viewers, for the mutating /control route.
func (s *Server) requireOperator(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(userContextKey).(*domain.User)
		if user == nil || (user.Role != domain.RoleOperator && user.Role != domain.RoleAdmin) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}
