package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/store"
	"github.com/tahmid/task-manager-api/internal/webutil"
)

// UserStore is the persistence surface the auth handlers need.
type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
}

// Mailer sends account lifecycle notifications.
type Mailer interface {
	SendWelcome(ctx context.Context, name, email string) error
}

// LoginLimiter caps login attempts per account.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler holds the registration, login and logout HTTP handlers.
type Handler struct {
	users   UserStore
	tokens  *TokenService
	mail    Mailer
	limiter LoginLimiter
}

func NewHandler(users UserStore, tokens *TokenService, mail Mailer, limiter LoginLimiter) *Handler {
	return &Handler{users: users, tokens: tokens, mail: mail, limiter: limiter}
}

// Register creates a new account, starts its first session and sends the
// welcome mail.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, Age: req.Age}
	user.Normalize()
	if err := user.Validate(); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := user.SetPassword(req.Password); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "password: "+err.Error())
		return
	}

	if err := h.users.Insert(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			webutil.RespondWithError(w, http.StatusBadRequest, "email already in use")
			return
		}
		log.Printf("register: insert user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := h.startSession(r.Context(), user)
	if err != nil {
		log.Printf("register: start session: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.mail.SendWelcome(r.Context(), user.Name, user.Email); err != nil {
		log.Printf("register: welcome mail to %s: %v", user.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

// Login checks credentials and starts a new session. Wrong email and wrong
// password are indistinguishable in the response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if ok, err := h.limiter.Allow(r.Context(), email); err != nil {
		// Fail open: auth availability must not depend on the cache.
		log.Printf("login: rate limiter: %v", err)
	} else if !ok {
		webutil.RespondWithError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			webutil.RespondWithError(w, http.StatusBadRequest, "unable to login")
			return
		}
		log.Printf("login: find user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !user.CheckPassword(req.Password) {
		webutil.RespondWithError(w, http.StatusBadRequest, "unable to login")
		return
	}

	token, err := h.startSession(r.Context(), user)
	if err != nil {
		log.Printf("login: start session: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

// Logout revokes exactly the session token used on this request. Other
// devices stay logged in.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	user.RemoveToken(TokenFrom(r.Context()))
	if err := h.users.Save(r.Context(), user); err != nil {
		log.Printf("logout: save user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll revokes every active session of the user, including unexpired
// tokens held by other devices.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	user.Tokens = []string{}
	if err := h.users.Save(r.Context(), user); err != nil {
		log.Printf("logoutAll: save user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

// startSession mints a token and appends it to the user's active-session
// list. The token is returned only after the list is persisted; a failed
// save means no token leaves the server.
func (h *Handler) startSession(ctx context.Context, user *models.User) (string, error) {
	token, err := h.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", err
	}
	user.Tokens = append(user.Tokens, token)
	if err := h.users.Save(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}
