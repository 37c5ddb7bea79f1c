package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Video is a read-only join target for watch-history lookups. Videos are
// owned and mutated by another service; this one only reads them.
type Video struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       bson.ObjectID `bson:"owner" json:"owner"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Thumbnail   string        `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Duration    float64       `bson:"duration,omitempty" json:"duration,omitempty"`
	Views       int64         `bson:"views" json:"views"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}

// VideoOwner is the minimal owner projection joined into watch-history
// entries: just enough to render a channel byline.
type VideoOwner struct {
	FullName string `bson:"fullName" json:"fullName"`
	Username string `bson:"username" json:"username"`
	Avatar   string `bson:"avatar" json:"avatar"`
}

// VideoView is a watch-history entry with its owner resolved.
type VideoView struct {
	ID          bson.ObjectID `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Thumbnail   string        `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Duration    float64       `bson:"duration,omitempty" json:"duration,omitempty"`
	Views       int64         `bson:"views" json:"views"`
	Owner       VideoOwner    `bson:"owner" json:"owner"`
}
