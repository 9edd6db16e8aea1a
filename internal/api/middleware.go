// Package api implements the Fihrist REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// LocalUser is the identity every request resolves to when auth is disabled.
const LocalUser = "local"

// UserID returns the authenticated user id from the request context, or
// empty when the request carries no identity.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// AuthMiddleware resolves the request identity from a Bearer token.
//
// With auth disabled every request acts as LocalUser. With auth enabled,
// tokens maps bearer tokens to user ids; writes without a valid token are
// rejected, reads proceed without an identity and the services degrade them
// to empty results.
func AuthMiddleware(enabled bool, tokens map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if !enabled {
				userID = LocalUser
			} else {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					userID = tokens[strings.TrimPrefix(auth, "Bearer ")]
				}
			}

			if userID == "" && enabled {
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, userID)))
		})
	}
}
