package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Description string             `json:"description" bson:"description"`
	Completed   bool               `json:"completed"   bson:"completed"`
	Owner       primitive.ObjectID `json:"owner"       bson:"owner"`
	CreatedAt   time.Time          `json:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"  bson:"updated_at"`
}

func (t *Task) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
}

func (t Task) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Description, validation.Required),
	)
}

// CreateTaskRequest is the JSON body for POST /tasks.
type CreateTaskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}
