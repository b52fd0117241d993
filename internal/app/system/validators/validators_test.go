package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/validators"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"users", "groups", "group_memberships", "tasks", "messages", "notifications"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := db.Collection("users")

	if _, err := users.InsertOne(ctx, bson.M{"full_name": "No Email"}); err == nil {
		t.Error("expected validation error when inserting user without required fields")
	}

	valid := bson.M{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"email_ci":  "ada@example.com",
		"role":      "teacher",
		"status":    "active",
	}
	if _, err := users.InsertOne(ctx, valid); err != nil {
		t.Errorf("valid user rejected: %v", err)
	}

	for _, role := range []string{"admin", "teacher", "student"} {
		doc := bson.M{"full_name": "R", "email": role + "@example.com", "email_ci": role + "@example.com", "role": role}
		if _, err := users.InsertOne(ctx, doc); err != nil {
			t.Errorf("role %q rejected: %v", role, err)
		}
	}

	bad := bson.M{"full_name": "X", "email": "x@example.com", "email_ci": "x@example.com", "role": "superadmin"}
	if _, err := users.InsertOne(ctx, bad); err == nil {
		t.Error("expected validation error for unknown role")
	}
}

func TestGroupsValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	groups := db.Collection("groups")

	if _, err := groups.InsertOne(ctx, bson.M{"name": "No owner"}); err == nil {
		t.Error("expected validation error when inserting group without owner")
	}
	valid := bson.M{"owner_id": primitive.NewObjectID(), "name": "Physics", "name_ci": "physics", "status": "active"}
	if _, err := groups.InsertOne(ctx, valid); err != nil {
		t.Errorf("valid group rejected: %v", err)
	}
	blank := bson.M{"owner_id": primitive.NewObjectID(), "name": "   ", "name_ci": "   ", "status": "active"}
	if _, err := groups.InsertOne(ctx, blank); err == nil {
		t.Error("expected validation error for blank name")
	}
}

func TestGroupMembershipsValidator_InvalidRole(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := bson.M{"user_id": primitive.NewObjectID(), "group_id": primitive.NewObjectID(), "role": "leader"}
	if _, err := db.Collection("group_memberships").InsertOne(ctx, doc); err == nil {
		t.Error("expected validation error for unknown membership role")
	}
}

func TestTasksValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	tasks := db.Collection("tasks")

	me := primitive.NewObjectID()
	valid := bson.M{
		"title":       "Essay",
		"assignee_id": me,
		"assigned_by": me,
		"assignment":  false,
		"status":      "open",
		"due_at":      time.Now().UTC(),
	}
	if _, err := tasks.InsertOne(ctx, valid); err != nil {
		t.Errorf("valid task rejected: %v", err)
	}

	bad := bson.M{"title": "Essay", "assignee_id": me, "assigned_by": me, "assignment": false, "status": "late"}
	if _, err := tasks.InsertOne(ctx, bad); err == nil {
		t.Error("expected validation error for unknown status")
	}
}

func TestMessagesValidator_RequiresArrays(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := bson.M{
		"group_id":      primitive.NewObjectID(),
		"sender_id":     primitive.NewObjectID(),
		"recipient_ids": nil,
		"read_by":       bson.A{},
		"body":          "hi",
		"created_at":    time.Now().UTC(),
	}
	if _, err := db.Collection("messages").InsertOne(ctx, doc); err == nil {
		t.Error("expected validation error for null recipient_ids")
	}
}

func TestNotificationsValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	valid := bson.M{
		"user_id":    primitive.NewObjectID(),
		"kind":       "task_due",
		"title":      "Due soon: Essay",
		"read":       false,
		"created_at": time.Now().UTC(),
	}
	if _, err := db.Collection("notifications").InsertOne(ctx, valid); err != nil {
		t.Errorf("valid notification rejected: %v", err)
	}
	if _, err := db.Collection("notifications").InsertOne(ctx, bson.M{"title": "orphan"}); err == nil {
		t.Error("expected validation error when inserting notification without user")
	}
}
