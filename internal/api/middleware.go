// Package api exposes the Synergy persistence contract over a chi REST API.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/synergy/internal/models"
)

// ActorHeader names the user a request acts on behalf of. It is a
// trusted-client header: the bearer token authenticates the client (the UI
// or a proxy in front of it), and whoever holds the token may act as any
// user. Login verifies credentials but issues nothing this header is checked
// against.
const ActorHeader = "X-User-ID"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor returns the acting user id, falling back to the system user.
func actor(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
		return id
	}
	return models.SystemUserID
}
