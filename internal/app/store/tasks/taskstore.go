// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var (
	// ErrNotFound covers both a missing task and one owned by someone else.
	ErrNotFound = errors.New("task not found")
	// ErrAlreadyCompleted is returned by Complete for a finished task.
	ErrAlreadyCompleted = errors.New("task is already completed")

	errEmptyTitle    = errors.New("task title is required")
	errMissingAssign = errors.New("task assignee is required")
)

// Create inserts t as an open task. A task created inside a group for
// someone other than its author is flagged as an assignment.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, errEmptyTitle
	}
	if t.AssigneeID.IsZero() {
		return models.Task{}, errMissingAssign
	}
	if t.AssignedBy.IsZero() {
		t.AssignedBy = t.AssigneeID
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Assignment = t.GroupID != nil && t.AssignedBy != t.AssigneeID
	t.Status = models.TaskOpen
	t.RemindedAt = nil
	t.CompletedAt = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

// Complete marks the assignee's open task completed.
func (s *Store) Complete(ctx context.Context, id, assigneeID primitive.ObjectID) (models.Task, error) {
	now := time.Now().UTC()
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "assignee_id": assigneeID, "status": models.TaskOpen},
		bson.M{"$set": bson.M{"status": models.TaskCompleted, "completed_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, err
	}

	// Tell "already done" apart from "not yours / not there".
	existing, gerr := s.GetByID(ctx, id)
	if gerr != nil || existing.AssigneeID != assigneeID {
		return models.Task{}, ErrNotFound
	}
	return models.Task{}, ErrAlreadyCompleted
}

// ListForAssignee returns the assignee's tasks, optionally filtered by
// status, soonest due first with undated tasks last.
func (s *Store) ListForAssignee(ctx context.Context, assigneeID primitive.ObjectID, status string) ([]models.Task, error) {
	filter := bson.M{"assignee_id": assigneeID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "due_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	// Mongo sorts missing due_at first; move undated tasks to the end.
	dated := make([]models.Task, 0, len(out))
	var undated []models.Task
	for _, t := range out {
		if t.DueAt == nil {
			undated = append(undated, t)
		} else {
			dated = append(dated, t)
		}
	}
	return append(dated, undated...), nil
}

// DueForReminder returns open tasks due before now+window that have not
// been reminded, oldest due first.
func (s *Store) DueForReminder(ctx context.Context, now time.Time, window time.Duration, limit int64) ([]models.Task, error) {
	filter := bson.M{
		"status":      models.TaskOpen,
		"due_at":      bson.M{"$lte": now.Add(window)},
		"reminded_at": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkReminded stamps reminded_at once. It reports false if another
// reminder pass got there first.
func (s *Store) MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reminded_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"reminded_at": at.UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
