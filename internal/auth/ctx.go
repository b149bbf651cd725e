package auth

import (
	"context"

	"github.com/tahmid/task-manager-api/internal/models"
)

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// WithSession returns a context carrying the authenticated user and the raw
// bearer token of the current session.
func WithSession(ctx context.Context, u *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFrom returns the authenticated user attached by the auth middleware,
// or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// TokenFrom returns the raw bearer token of the current session. Logout
// needs it to revoke exactly this session.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
