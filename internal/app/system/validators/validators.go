// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("groups", groupsSchema())
	ensure("group_memberships", groupMembershipsSchema())
	ensure("tasks", tasksSchema())
	ensure("messages", messagesSchema())
	ensure("notifications", notificationsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			logger.Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "email_ci", "role"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"full_name_ci":  bson.M{"bsonType": "string"},
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": bson.A{models.RoleAdmin, models.RoleTeacher, models.RoleStudent}},
				"status":        bson.M{"enum": bson.A{models.StatusActive, "disabled"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "name", "name_ci", "status"},
			"properties": bson.M{
				"owner_id": bson.M{"bsonType": "objectId"},
				"name":     nonBlank,
				"name_ci":  nonBlank,
				"status":   bson.M{"enum": bson.A{models.StatusActive}},
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "group_id", "role"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"group_id":   bson.M{"bsonType": "objectId"},
				"role":       bson.M{"enum": bson.A{models.MembershipOwner, models.MembershipMember}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func tasksSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "assignee_id", "assigned_by", "assignment", "status"},
			"properties": bson.M{
				"title":        nonBlank,
				"assignee_id":  bson.M{"bsonType": "objectId"},
				"assigned_by":  bson.M{"bsonType": "objectId"},
				"group_id":     bson.M{"bsonType": "objectId"},
				"assignment":   bson.M{"bsonType": "bool"},
				"status":       bson.M{"enum": bson.A{models.TaskOpen, models.TaskCompleted}},
				"due_at":       bson.M{"bsonType": "date"},
				"reminded_at":  bson.M{"bsonType": "date"},
				"completed_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "sender_id", "recipient_ids", "read_by", "body", "created_at"},
			"properties": bson.M{
				"group_id":      bson.M{"bsonType": "objectId"},
				"sender_id":     bson.M{"bsonType": "objectId"},
				"recipient_ids": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"read_by":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"body":          nonBlank,
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "kind", "title", "read", "created_at"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"kind":       bson.M{"bsonType": "string"},
				"task_id":    bson.M{"bsonType": "objectId"},
				"title":      nonBlank,
				"read":       bson.M{"bsonType": "bool"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
