// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c           *mongo.Collection
	memberships *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("messages"),
		memberships: db.Collection("group_memberships"),
	}
}

var (
	ErrNotFound  = errors.New("message not found")
	ErrEmptyBody = errors.New("message body is empty")
)

// Post sanitizes body and stores it as a message to every current member
// of groupID except the sender. The sender counts as having read it.
func (s *Store) Post(ctx context.Context, groupID, senderID primitive.ObjectID, body string) (models.Message, error) {
	clean := htmlsanitize.Sanitize(body)
	if htmlsanitize.PlainText(clean) == "" {
		return models.Message{}, ErrEmptyBody
	}

	raw, err := s.memberships.Distinct(ctx, "user_id", bson.M{"group_id": groupID})
	if err != nil {
		return models.Message{}, err
	}
	recipients := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok && id != senderID {
			recipients = append(recipients, id)
		}
	}

	msg := models.Message{
		ID:           primitive.NewObjectID(),
		GroupID:      groupID,
		SenderID:     senderID,
		RecipientIDs: recipients,
		ReadBy:       []primitive.ObjectID{senderID},
		Body:         clean,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListByGroup returns up to limit of the group's most recent messages,
// newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead records that userID has read the message. Only recipients can
// mark a message read; marking twice is a no-op.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_ids": userID},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread returns how many messages addressed to userID are unread.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recipient_ids": userID, "read_by": bson.M{"$ne": userID}})
}
