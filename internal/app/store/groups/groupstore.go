// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c           *mongo.Collection
	memberships *mongo.Collection
}

var (
	ErrNotFound  = errors.New("group not found")
	errEmptyName = errors.New("group name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("groups"),
		memberships: db.Collection("group_memberships"),
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts g owned by g.OwnerID and records the owner's membership.
// If the membership cannot be written the group is removed again.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return models.Group{}, errEmptyName
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	if g.Status == "" {
		g.Status = models.StatusActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}

	owner := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   g.ID,
		UserID:    g.OwnerID,
		Role:      models.MembershipOwner,
		CreatedAt: now,
	}
	if _, err := s.memberships.InsertOne(ctx, owner); err != nil {
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": g.ID})
		return models.Group{}, fmt.Errorf("add owner membership: %w", err)
	}
	return g, nil
}

// ListForOwner returns the groups ownerID owns, ordered by name.
func (s *Store) ListForOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Group, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID})
}

// ListByIDs returns the groups with the given ids, ordered by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// CountOwned returns how many groups ownerID owns.
func (s *Store) CountOwned(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
