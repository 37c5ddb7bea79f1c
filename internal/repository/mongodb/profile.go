package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kunals/vidstream/internal/apperror"
	"github.com/kunals/vidstream/internal/model"
	"github.com/kunals/vidstream/internal/repository"
)

var (
	_ repository.SubscriptionRepository = (*DB)(nil)
	_ repository.VideoRepository        = (*DB)(nil)
)

// CountSubscribers counts subscriptions pointing at the channel.
func (db *DB) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(channelID)
	if err != nil {
		return 0, apperror.NotFound("channel", channelID)
	}

	n, err := db.subscriptions().CountDocuments(ctx, bson.D{{Key: "channel", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("mongodb: counting subscribers of %s: %w", channelID, err)
	}
	return n, nil
}

// CountSubscribedTo counts the channels the user subscribes to.
func (db *DB) CountSubscribedTo(ctx context.Context, userID string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return 0, apperror.NotFound("user", userID)
	}

	n, err := db.subscriptions().CountDocuments(ctx, bson.D{{Key: "subscriber", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("mongodb: counting subscriptions of %s: %w", userID, err)
	}
	return n, nil
}

// IsSubscribed probes for a single subscription edge. A limited count keeps
// it an index-only existence check.
func (db *DB) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	subOID, err := bson.ObjectIDFromHex(subscriberID)
	if err != nil {
		return false, nil
	}
	chOID, err := bson.ObjectIDFromHex(channelID)
	if err != nil {
		return false, nil
	}

	n, err := db.subscriptions().CountDocuments(ctx,
		bson.D{
			{Key: "subscriber", Value: subOID},
			{Key: "channel", Value: chOID},
		},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongodb: checking subscription %s -> %s: %w", subscriberID, channelID, err)
	}
	return n > 0, nil
}

// WatchHistory resolves the user's watchHistory references against the
// videos collection, joining each video's owner down to the minimal
// projection. Results come back in the stored order of the reference list
// ($in does not preserve order, so entries are reordered here).
func (db *DB) WatchHistory(ctx context.Context, userID string) ([]model.VideoView, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperror.NotFound("user", userID)
	}

	// Fetch only the reference list; the user document itself is not needed.
	var doc struct {
		WatchHistory []bson.ObjectID `bson:"watchHistory"`
	}
	err = db.users().FindOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		options.FindOne().SetProjection(bson.D{{Key: "watchHistory", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("mongodb: reading watch history of %s: %w", userID, err)
	}

	if len(doc.WatchHistory) == 0 {
		return []model.VideoView{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$in", Value: doc.WatchHistory}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "owner"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "fullName", Value: 1},
					{Key: "username", Value: 1},
					{Key: "avatar", Value: 1},
				}}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner"}}},
		}}},
	}

	cursor, err := db.videos().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb: aggregating watch history of %s: %w", userID, err)
	}

	var fetched []model.VideoView
	if err := cursor.All(ctx, &fetched); err != nil {
		return nil, fmt.Errorf("mongodb: decoding watch history of %s: %w", userID, err)
	}

	// Restore the stored (most-recent-first) order of the reference list.
	byID := make(map[bson.ObjectID]model.VideoView, len(fetched))
	for _, v := range fetched {
		byID[v.ID] = v
	}
	ordered := make([]model.VideoView, 0, len(doc.WatchHistory))
	for _, id := range doc.WatchHistory {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}

	return ordered, nil
}
