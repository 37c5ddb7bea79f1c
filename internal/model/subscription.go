package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscription relates a subscriber User to a channel User. This service
// only counts and probes subscriptions; it never writes them.
type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}
