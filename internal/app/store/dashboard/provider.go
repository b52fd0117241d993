// internal/app/store/dashboard/provider.go
package dashboardstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Category names one of the six dashboard counters.
type Category string

const (
	OwnedGroups       Category = "owned-groups"
	ActiveAssignments Category = "active-assignments"
	UnreadMessages    Category = "unread-messages"
	TotalTasks        Category = "total-tasks"
	CompletedTasks    Category = "completed-tasks"
	OverdueTasks      Category = "overdue-tasks"
)

// Categories lists every counter in display order.
var Categories = []Category{
	OwnedGroups,
	ActiveAssignments,
	UnreadMessages,
	TotalTasks,
	CompletedTasks,
	OverdueTasks,
}

// DataAccessError is the single failure kind for a dashboard count.
// Network, permission and missing-data errors all collapse into it.
type DataAccessError struct {
	Category Category
	Err      error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("dashboard: count %s: %v", e.Category, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// Provider is the count capability the dashboard reads from.
type Provider interface {
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// MongoProvider counts documents in a Mongo database.
type MongoProvider struct {
	db *mongo.Database
}

// NewMongoProvider wraps db as a Provider.
func NewMongoProvider(db *mongo.Database) *MongoProvider {
	return &MongoProvider{db: db}
}

// Count returns the number of documents in collection matching filter.
func (p *MongoProvider) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	return p.db.Collection(collection).CountDocuments(ctx, filter)
}
