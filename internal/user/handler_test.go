package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/store"
)

type fakeUserStore struct {
	byID      map[string]*models.User
	saves     int
	saveErr   error
	deleted   []primitive.ObjectID
	deleteErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Save(_ context.Context, u *models.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.byID[u.ID.Hex()] = u
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id.Hex())
	return nil
}

type fakeTaskStore struct {
	cascaded []primitive.ObjectID
	err      error
}

func (f *fakeTaskStore) DeleteByOwner(_ context.Context, owner primitive.ObjectID) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.cascaded = append(f.cascaded, owner)
	return 2, nil
}

type fakeMailer struct {
	cancellations []string
}

func (f *fakeMailer) SendCancellation(_ context.Context, _, email string) error {
	f.cancellations = append(f.cancellations, email)
	return nil
}

func seedUser(t *testing.T, users *fakeUserStore) *models.User {
	t.Helper()
	u := &models.User{ID: primitive.NewObjectID(), Name: "A", Email: "a@x.com", Age: 30}
	require.NoError(t, u.SetPassword("longenough"))
	users.byID[u.ID.Hex()] = u
	return u
}

func authedRequest(u *models.User, method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.WithSession(req.Context(), u, "tok"))
}

func TestMeOmitsSecrets(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	u.Tokens = []string{"tok"}
	u.Avatar = []byte{1, 2, 3}
	h := NewHandler(users, &fakeTaskStore{}, &fakeMailer{})

	rec := httptest.NewRecorder()
	h.Me(rec, authedRequest(u, http.MethodGet, "/users/me", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "a@x.com", body["email"])
	require.NotContains(t, body, "password")
	require.NotContains(t, body, "tokens")
	require.NotContains(t, body, "avatar")
}

func TestUpdateProfile(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	h := NewHandler(users, &fakeTaskStore{}, &fakeMailer{})

	rec := httptest.NewRecorder()
	h.Update(rec, authedRequest(u, http.MethodPatch, "/users/me", `{"name":"  B  ","email":"B@Y.com","age":31}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "B", u.Name)
	require.Equal(t, "b@y.com", u.Email)
	require.Equal(t, 31, u.Age)
	require.Equal(t, 1, users.saves)
}

func TestUpdateProfilePasswordRehashes(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	oldHash := u.Password
	h := NewHandler(users, &fakeTaskStore{}, &fakeMailer{})

	rec := httptest.NewRecorder()
	h.Update(rec, authedRequest(u, http.MethodPatch, "/users/me", `{"password":"evenlonger"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEqual(t, oldHash, u.Password)
	require.NotEqual(t, "evenlonger", u.Password)
	require.True(t, u.CheckPassword("evenlonger"))
	require.False(t, u.CheckPassword("longenough"))
}

func TestUpdateProfileRejectsUnknownFieldWholesale(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	h := NewHandler(users, &fakeTaskStore{}, &fakeMailer{})

	// "name" alone would be accepted; "tokens" poisons the whole request.
	rec := httptest.NewRecorder()
	h.Update(rec, authedRequest(u, http.MethodPatch, "/users/me", `{"name":"B","tokens":[]}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"invalid updates"}`, rec.Body.String())
	require.Equal(t, "A", u.Name)
	require.Zero(t, users.saves)
}

func TestUpdateProfileRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"nope"}`},
		{"negative age", `{"age":-4}`},
		{"short password", `{"password":"tiny"}`},
		{"password contains password", `{"password":"mypassword1"}`},
		{"wrong type", `{"age":"old"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newFakeUserStore()
			u := seedUser(t, users)
			h := NewHandler(users, &fakeTaskStore{}, &fakeMailer{})

			rec := httptest.NewRecorder()
			h.Update(rec, authedRequest(u, http.MethodPatch, "/users/me", tc.body))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Zero(t, users.saves)
		})
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	tasks := &fakeTaskStore{}
	mailer := &fakeMailer{}
	h := NewHandler(users, tasks, mailer)

	rec := httptest.NewRecorder()
	h.Delete(rec, authedRequest(u, http.MethodDelete, "/users/me", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []primitive.ObjectID{u.ID}, tasks.cascaded)
	require.Equal(t, []primitive.ObjectID{u.ID}, users.deleted)
	require.Equal(t, []string{"a@x.com"}, mailer.cancellations)
}

func TestDeleteAccountCascadeFailureKeepsUser(t *testing.T) {
	users := newFakeUserStore()
	u := seedUser(t, users)
	tasks := &fakeTaskStore{err: context.DeadlineExceeded}
	mailer := &fakeMailer{}
	h := NewHandler(users, tasks, mailer)

	rec := httptest.NewRecorder()
	h.Delete(rec, authedRequest(u, http.MethodDelete, "/users/me", ""))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, users.deleted)
	require.Contains(t, users.byID, u.ID.Hex())
	require.Empty(t, mailer.cancellations)
}
