package user

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/store"
	"github.com/tahmid/task-manager-api/internal/webutil"
)

// UserStore is the persistence surface the profile handlers need.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TaskStore is the slice of task persistence used by the deletion cascade.
type TaskStore interface {
	DeleteByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
}

// Mailer sends account lifecycle notifications.
type Mailer interface {
	SendCancellation(ctx context.Context, name, email string) error
}

// Handler holds the profile and avatar HTTP handlers.
type Handler struct {
	users UserStore
	tasks TaskStore
	mail  Mailer
}

func NewHandler(users UserStore, tasks TaskStore, mail Mailer) *Handler {
	return &Handler{users: users, tasks: tasks, mail: mail}
}

// Me returns the authenticated user's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithJSON(w, http.StatusOK, auth.UserFrom(r.Context()))
}

var allowedUserUpdates = map[string]bool{
	"name":     true,
	"email":    true,
	"age":      true,
	"password": true,
}

// Update applies an allow-listed partial update to the profile. A request
// naming any other field is rejected wholesale before anything is applied.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for name := range fields {
		if !allowedUserUpdates[name] {
			webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
			return
		}
	}

	if !applyField(w, fields, "name", &user.Name) ||
		!applyField(w, fields, "email", &user.Email) ||
		!applyField(w, fields, "age", &user.Age) {
		return
	}
	if raw, ok := fields["password"]; ok {
		var plain string
		if err := json.Unmarshal(raw, &plain); err != nil {
			webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
			return
		}
		if err := user.SetPassword(plain); err != nil {
			webutil.RespondWithError(w, http.StatusBadRequest, "password: "+err.Error())
			return
		}
	}

	user.Normalize()
	if err := user.Validate(); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Save(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			webutil.RespondWithError(w, http.StatusBadRequest, "email already in use")
			return
		}
		log.Printf("update profile: save user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, user)
}

func applyField[T any](w http.ResponseWriter, fields map[string]json.RawMessage, name string, dst *T) bool {
	raw, ok := fields[name]
	if !ok {
		return true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
		return false
	}
	return true
}

// Delete removes the account and, first, every task it owns. If the task
// cascade fails the user document is left intact and the request fails.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	if _, err := h.tasks.DeleteByOwner(r.Context(), user.ID); err != nil {
		log.Printf("delete account: cascade tasks for %s: %v", user.ID.Hex(), err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		log.Printf("delete account: delete user %s: %v", user.ID.Hex(), err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.mail.SendCancellation(r.Context(), user.Name, user.Email); err != nil {
		log.Printf("delete account: cancellation mail to %s: %v", user.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
}
