package middleware

import (
	"context"
	"log"
	"net/http"

	"foldercast/internal/db"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

// AuthMiddleware resolves the caller identity set by the fronting auth proxy
// and upserts the user record. Requests without an identity header are
// rejected; the application itself performs no credential checks.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get("X-Auth-User")
		if username == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := db.UpsertUser(username)
		if err != nil {
			log.Printf("Error resolving user %q: %v", username, err)
			http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
