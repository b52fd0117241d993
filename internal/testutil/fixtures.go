package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with the given role. No password is set.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent inserts a student user.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent)
}

// CreateGroup inserts a group owned by ownerID and records the owner's membership.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, ownerID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		OwnerID:     ownerID,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	f.AddMember(ctx, group.ID, ownerID, models.MembershipOwner)
	return group
}

// AddMember inserts a membership row.
func (f *Fixtures) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, role string) {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
}

// TaskOpts customises CreateTask.
type TaskOpts struct {
	GroupID    *primitive.ObjectID
	AssignedBy primitive.ObjectID
	Completed  bool
	DueAt      *time.Time
}

// CreateTask inserts a task assigned to assigneeID.
func (f *Fixtures) CreateTask(ctx context.Context, title string, assigneeID primitive.ObjectID, opts TaskOpts) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	assignedBy := opts.AssignedBy
	if assignedBy.IsZero() {
		assignedBy = assigneeID
	}
	task := models.Task{
		ID:         primitive.NewObjectID(),
		Title:      title,
		AssigneeID: assigneeID,
		AssignedBy: assignedBy,
		GroupID:    opts.GroupID,
		Assignment: opts.GroupID != nil && assignedBy != assigneeID,
		Status:     models.TaskOpen,
		DueAt:      opts.DueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if opts.Completed {
		task.Status = models.TaskCompleted
		task.CompletedAt = &now
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateMessage inserts a message to recipients; readBy lists who has read it.
func (f *Fixtures) CreateMessage(ctx context.Context, groupID, senderID primitive.ObjectID, recipients, readBy []primitive.ObjectID) models.Message {
	f.t.Helper()

	if readBy == nil {
		readBy = []primitive.ObjectID{}
	}
	msg := models.Message{
		ID:           primitive.NewObjectID(),
		GroupID:      groupID,
		SenderID:     senderID,
		RecipientIDs: recipients,
		ReadBy:       readBy,
		Body:         "hello",
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return msg
}
