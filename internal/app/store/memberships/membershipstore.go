// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var (
	ErrDuplicateMembership = errors.New("user is already a member of this group")
	errBadRole             = errors.New(`role must be "owner" or "member"`)
)

// Add records userID as a member of groupID. The unique
// (group_id, user_id) index turns a second Add into ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	if role != models.MembershipOwner && role != models.MembershipMember {
		return errBadRole
	}
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership if present.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	return err
}

// IsMember reports whether userID belongs to groupID in any role.
func (s *Store) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// UserIDs returns every member of groupID, owner included.
func (s *Store) UserIDs(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.distinct(ctx, "user_id", bson.M{"group_id": groupID})
}

// GroupIDs returns every group userID belongs to.
func (s *Store) GroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.distinct(ctx, "group_id", bson.M{"user_id": userID})
}

func (s *Store) distinct(ctx context.Context, field string, filter bson.M) ([]primitive.ObjectID, error) {
	raw, err := s.c.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
