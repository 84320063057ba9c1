// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sponsorgrid/sponsorgrid/internal/auth"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
)

type userContextKey string

var userKey userContextKey = "sponsorgrid_user"

// AuthMiddleware creates a middleware that validates identity-provider
// tokens and puts the authenticated identity snapshot on the request
// context.
func AuthMiddleware(verifier *auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			// Validate token
			claims, err := verifier.Validate(parts[1])
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user := model.UserInfo{
				UserID:      claims.UserID,
				Email:       strings.ToLower(claims.Email),
				DisplayName: claims.DisplayName,
				PhotoURL:    claims.PhotoURL,
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the authenticated identity placed on the context by
// AuthMiddleware; ok is false on unauthenticated requests.
func UserFrom(ctx context.Context) (model.UserInfo, bool) {
	user, ok := ctx.Value(userKey).(model.UserInfo)
	return user, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
