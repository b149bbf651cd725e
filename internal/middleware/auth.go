package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/webutil"
)

// SessionResolver resolves a user by id only while the given token string is
// still on that user's active-session list.
type SessionResolver interface {
	GetBySessionToken(ctx context.Context, id, token string) (*models.User, error)
}

// RequireAuth validates the bearer token on the request and injects the
// resolved user and the raw token string into the request context. Every
// failure mode (missing header, bad signature, expired, revoked, deleted
// account, store error) gets the same 401 response.
func RequireAuth(tokens *auth.TokenService, users SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				reject(w)
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				reject(w)
				return
			}

			user, err := users.GetBySessionToken(r.Context(), userID, raw)
			if err != nil {
				reject(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), user, raw)))
		})
	}
}

func reject(w http.ResponseWriter) {
	webutil.RespondWithError(w, http.StatusUnauthorized, "please authenticate")
}
