package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/store"
)

var testSecret = []byte("test-secret")

type fakeResolver struct {
	user *models.User
	// tokens still considered active for user
	active map[string]bool
	err    error
}

func (f *fakeResolver) GetBySessionToken(_ context.Context, id, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || f.user.ID.Hex() != id || !f.active[token] {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func protected(t *testing.T, resolver *fakeResolver) (http.Handler, *bool, **models.User, *string) {
	t.Helper()
	var called bool
	var seenUser *models.User
	var seenToken string

	tokens := auth.NewTokenService(testSecret)
	handler := RequireAuth(tokens, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seenUser = auth.UserFrom(r.Context())
		seenToken = auth.TokenFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &called, &seenUser, &seenToken
}

func TestRequireAuthSuccess(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Name: "A"}
	tok, err := auth.NewTokenService(testSecret).Issue(user.ID.Hex())
	require.NoError(t, err)
	resolver := &fakeResolver{user: user, active: map[string]bool{tok: true}}

	handler, called, seenUser, seenToken := protected(t, resolver)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *called)
	require.Equal(t, user, *seenUser)
	require.Equal(t, tok, *seenToken)
}

func TestRequireAuthRejections(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	svc := auth.NewTokenService(testSecret)

	valid, err := svc.Issue(user.ID.Hex())
	require.NoError(t, err)

	forged, err := auth.NewTokenService([]byte("other-secret")).Issue(user.ID.Hex())
	require.NoError(t, err)

	expired := expiredToken(t, user.ID.Hex())

	cases := []struct {
		name     string
		header   string
		resolver *fakeResolver
	}{
		{"no header", "", &fakeResolver{user: user, active: map[string]bool{valid: true}}},
		{"not bearer", "Basic abc", &fakeResolver{user: user, active: map[string]bool{valid: true}}},
		{"malformed token", "Bearer garbage", &fakeResolver{user: user, active: map[string]bool{valid: true}}},
		{"forged signature", "Bearer " + forged, &fakeResolver{user: user, active: map[string]bool{valid: true}}},
		{"expired", "Bearer " + expired, &fakeResolver{user: user, active: map[string]bool{expired: true}}},
		{"revoked", "Bearer " + valid, &fakeResolver{user: user, active: map[string]bool{}}},
		{"user gone", "Bearer " + valid, &fakeResolver{}},
		{"store error", "Bearer " + valid, &fakeResolver{err: context.DeadlineExceeded}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, called, _, _ := protected(t, tc.resolver)

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.False(t, *called)
			require.JSONEq(t, `{"error":"please authenticate"}`, rec.Body.String())
		})
	}
}

// expiredToken signs a structurally valid token whose expiry is in the past.
func expiredToken(t *testing.T, userID string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: userID,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return tok
}
