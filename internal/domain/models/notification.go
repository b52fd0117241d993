// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app inbox entry.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Kind      string              `bson:"kind" json:"kind"`
	TaskID    *primitive.ObjectID `bson:"task_id,omitempty" json:"task_id,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// NotificationTaskDue is written by the task reminder worker.
const NotificationTaskDue = "task_due"
