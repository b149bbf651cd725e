package task

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/models"
	"github.com/tahmid/task-manager-api/internal/store"
	"github.com/tahmid/task-manager-api/internal/webutil"
)

// TaskStore is the persistence surface the task handlers need. Every scoped
// call filters by owner in the same query as the id; a task owned by someone
// else is indistinguishable from one that does not exist.
type TaskStore interface {
	Insert(ctx context.Context, t *models.Task) error
	GetForOwner(ctx context.Context, id string, owner primitive.ObjectID) (*models.Task, error)
	ListForOwner(ctx context.Context, owner primitive.ObjectID, opt store.ListOptions) ([]models.Task, error)
	Save(ctx context.Context, t *models.Task) error
	DeleteForOwner(ctx context.Context, id string, owner primitive.ObjectID) error
}

// Handler holds the task CRUD HTTP handlers.
type Handler struct {
	tasks TaskStore
}

func NewHandler(tasks TaskStore) *Handler {
	return &Handler{tasks: tasks}
}

// Create inserts a task owned by the requester.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task := &models.Task{
		Description: req.Description,
		Completed:   req.Completed,
		Owner:       user.ID,
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tasks.Insert(r.Context(), task); err != nil {
		log.Printf("create task: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, task)
}

// List returns the requester's tasks, optionally filtered, sorted and paged.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	opt, err := parseListOptions(r.URL.Query())
	if err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.tasks.ListForOwner(r.Context(), user.ID, opt)
	if err != nil {
		log.Printf("list tasks: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, tasks)
}

// Get returns one task by id, scoped to the requester.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	task, err := h.tasks.GetForOwner(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		h.respondLookupError(w, "get task", err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, task)
}

var allowedTaskUpdates = map[string]bool{
	"description": true,
	"completed":   true,
}

// Update applies an allow-listed partial update to a task the requester
// owns. Requests naming any other field are rejected wholesale before the
// store is touched.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for name := range fields {
		if !allowedTaskUpdates[name] {
			webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
			return
		}
	}

	task, err := h.tasks.GetForOwner(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		h.respondLookupError(w, "update task", err)
		return
	}

	if raw, ok := fields["description"]; ok {
		if err := json.Unmarshal(raw, &task.Description); err != nil {
			webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
			return
		}
	}
	if raw, ok := fields["completed"]; ok {
		if err := json.Unmarshal(raw, &task.Completed); err != nil {
			webutil.RespondWithError(w, http.StatusBadRequest, "invalid updates")
			return
		}
	}

	task.Normalize()
	if err := task.Validate(); err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tasks.Save(r.Context(), task); err != nil {
		h.respondLookupError(w, "update task", err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, task)
}

// Delete removes one task by id, scoped to the requester.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	id := chi.URLParam(r, "id")
	task, err := h.tasks.GetForOwner(r.Context(), id, user.ID)
	if err != nil {
		h.respondLookupError(w, "delete task", err)
		return
	}
	if err := h.tasks.DeleteForOwner(r.Context(), id, user.ID); err != nil {
		h.respondLookupError(w, "delete task", err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, task)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		webutil.RespondWithError(w, http.StatusNotFound, "not found")
		return
	}
	log.Printf("%s: %v", op, err)
	webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
}
