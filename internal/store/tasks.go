package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tahmid/task-manager-api/internal/models"
)

// ListOptions narrows and orders a task listing.
type ListOptions struct {
	Completed *bool
	SortField string // bson field name; empty means created_at
	SortDesc  bool
	Limit     int64
	Skip      int64
}

// TaskStore handles task document CRUD in MongoDB. Every lookup that takes an
// owner id filters on it in the same query as the id.
type TaskStore struct {
	col *mongo.Collection
}

func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{col: db.Collection("tasks")}
}

func (s *TaskStore) Insert(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("mongo insert task: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *TaskStore) GetForOwner(ctx context.Context, id string, owner primitive.ObjectID) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var t models.Task
	err = s.col.FindOne(ctx, bson.M{"_id": oid, "owner": owner}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find task: %w", err)
	}
	return &t, nil
}

func (s *TaskStore) ListForOwner(ctx context.Context, owner primitive.ObjectID, opt ListOptions) ([]models.Task, error) {
	filter := bson.M{"owner": owner}
	if opt.Completed != nil {
		filter["completed"] = *opt.Completed
	}

	field := opt.SortField
	if field == "" {
		field = "created_at"
	}
	dir := 1
	if opt.SortDesc {
		dir = -1
	}
	findOpts := options.Find().SetSort(bson.D{{Key: field, Value: dir}})
	if opt.Limit > 0 {
		findOpts.SetLimit(opt.Limit)
	}
	if opt.Skip > 0 {
		findOpts.SetSkip(opt.Skip)
	}

	cur, err := s.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo list tasks: %w", err)
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("mongo decode tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Save(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": t.ID, "owner": t.Owner}, t)
	if err != nil {
		return fmt.Errorf("mongo save task: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TaskStore) DeleteForOwner(ctx context.Context, id string, owner primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "owner": owner})
	if err != nil {
		return fmt.Errorf("mongo delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every task owned by the given user. Used by the
// account-deletion cascade before the user document itself is removed.
func (s *TaskStore) DeleteByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, fmt.Errorf("mongo delete tasks by owner: %w", err)
	}
	return res.DeletedCount, nil
}
