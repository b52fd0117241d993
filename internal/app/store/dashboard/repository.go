// internal/app/store/dashboard/repository.go
package dashboardstore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository exposes the six dashboard counts for one user. Each call is an
// isolated request to the Provider: no batching, no caching.
type Repository struct {
	p      Provider
	userID primitive.ObjectID
	now    func() time.Time
}

// NewRepository scopes a Repository to userID.
func NewRepository(p Provider, userID primitive.ObjectID) *Repository {
	return &Repository{p: p, userID: userID, now: time.Now}
}

// WithClock replaces the clock used for the overdue cutoff.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// UserID returns the user the repository is scoped to.
func (r *Repository) UserID() primitive.ObjectID { return r.userID }

func (r *Repository) count(ctx context.Context, cat Category, coll string, filter bson.M) (int64, error) {
	n, err := r.p.Count(ctx, coll, filter)
	if err != nil {
		return 0, &DataAccessError{Category: cat, Err: err}
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// MyGroupsCount counts groups the user owns.
func (r *Repository) MyGroupsCount(ctx context.Context) (int64, error) {
	return r.count(ctx, OwnedGroups, "groups", bson.M{"owner_id": r.userID})
}

// ActiveAssignmentsCount counts open group assignments handed to the user.
func (r *Repository) ActiveAssignmentsCount(ctx context.Context) (int64, error) {
	return r.count(ctx, ActiveAssignments, "tasks", bson.M{
		"assignee_id": r.userID,
		"assignment":  true,
		"status":      models.TaskOpen,
	})
}

// NewMessagesCount counts messages addressed to the user that they have not read.
func (r *Repository) NewMessagesCount(ctx context.Context) (int64, error) {
	return r.count(ctx, UnreadMessages, "messages", bson.M{
		"recipient_ids": r.userID,
		"read_by":       bson.M{"$ne": r.userID},
	})
}

// TotalTasksCount counts every task assigned to the user.
func (r *Repository) TotalTasksCount(ctx context.Context) (int64, error) {
	return r.count(ctx, TotalTasks, "tasks", bson.M{"assignee_id": r.userID})
}

// CompletedTasksCount counts the user's completed tasks.
func (r *Repository) CompletedTasksCount(ctx context.Context) (int64, error) {
	return r.count(ctx, CompletedTasks, "tasks", bson.M{
		"assignee_id": r.userID,
		"status":      models.TaskCompleted,
	})
}

// OverdueTasksCount counts open tasks whose due date has passed.
func (r *Repository) OverdueTasksCount(ctx context.Context) (int64, error) {
	return r.count(ctx, OverdueTasks, "tasks", bson.M{
		"assignee_id": r.userID,
		"status":      models.TaskOpen,
		"due_at":      bson.M{"$lt": r.now().UTC()},
	})
}
