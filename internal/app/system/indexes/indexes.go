// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", userIndexes()},
		{"groups", groupIndexes()},
		{"group_memberships", membershipIndexes()},
		{"tasks", taskIndexes()},
		{"messages", messageIndexes()},
		{"notifications", notificationIndexes()},
	}

	var problems []string
	for _, s := range sets {
		r := reconciler{coll: db.Collection(s.coll), log: logger.With(zap.String("collection", s.coll))}
		if err := r.ensure(ctx, s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciliation                                                              */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

type reconciler struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// existing maps key signature to the index currently on the collection.
func (r reconciler) existing(ctx context.Context) (map[string]existingIndex, error) {
	cur, err := r.coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			r.log.Warn("failed to decode existing index", zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensure creates each desired index, reusing an identical one and replacing
// one with the same keys but a different name or uniqueness.
func (r reconciler) ensure(ctx context.Context, models []mongo.IndexModel) error {
	have, err := r.existing(ctx)
	if err != nil {
		// A missing collection lists no indexes; anything else is a real error.
		var ce mongo.CommandError
		if !errors.As(err, &ce) || ce.Code != 26 {
			return err
		}
		have = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := ""
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{zap.String("name", name), zap.String("keys", sig), zap.Bool("unique", isUnique(unique))}

		if ex, ok := have[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				r.log.Debug("reusing existing index", fields...)
				continue
			}
			r.log.Info("replacing index", append(fields, zap.String("from", ex.Name))...)
			if _, err := r.coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := r.coll.Indexes().CreateOne(ctx, m); err != nil {
			r.log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			if isDuplicateKeyErr(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present on %s)", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		r.log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_email_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status_fullnameci"),
		},
	}
}

func groupIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// dashboard: owned groups
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_groups_owner_nameci"),
		},
	}
}

func membershipIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_membership_group_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_membership_user"),
		},
	}
}

func taskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// dashboard: total, completed and overdue counts
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}, {Key: "status", Value: 1}, {Key: "due_at", Value: 1}},
			Options: options.Index().SetName("idx_tasks_assignee_status_due"),
		},
		// dashboard: active assignments
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}, {Key: "assignment", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tasks_assignee_assignment_status"),
		},
		// reminder scan
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "reminded_at", Value: 1}, {Key: "due_at", Value: 1}},
			Options: options.Index().SetName("idx_tasks_status_reminded_due"),
		},
	}
}

func messageIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// dashboard: unread messages
		{
			Keys:    bson.D{{Key: "recipient_ids", Value: 1}, {Key: "read_by", Value: 1}},
			Options: options.Index().SetName("idx_messages_recipient_readby"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_messages_group_created"),
		},
	}
}

func notificationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_read_created"),
		},
	}
}
