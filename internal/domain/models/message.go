// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a post in a group conversation. Recipients are the group's
// members at the time of posting (the sender excluded); ReadBy grows as
// recipients open the message.
type Message struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	GroupID      primitive.ObjectID   `bson:"group_id" json:"group_id"`
	SenderID     primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	RecipientIDs []primitive.ObjectID `bson:"recipient_ids" json:"-"`
	ReadBy       []primitive.ObjectID `bson:"read_by" json:"-"`
	Body         string               `bson:"body" json:"body"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
}
