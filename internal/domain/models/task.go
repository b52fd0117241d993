// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a unit of work assigned to one user.
//
// A task with a GroupID and an AssignedBy different from the assignee is an
// "assignment": work handed out inside a group rather than a personal to-do.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	AssigneeID  primitive.ObjectID  `bson:"assignee_id" json:"assignee_id"`
	AssignedBy  primitive.ObjectID  `bson:"assigned_by" json:"assigned_by"`
	GroupID     *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Assignment  bool                `bson:"assignment" json:"assignment"`
	Status      string              `bson:"status" json:"status"` // open | completed
	DueAt       *time.Time          `bson:"due_at,omitempty" json:"due_at,omitempty"`
	RemindedAt  *time.Time          `bson:"reminded_at,omitempty" json:"reminded_at,omitempty"`
	CompletedAt *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Task statuses.
const (
	TaskOpen      = "open"
	TaskCompleted = "completed"
)
