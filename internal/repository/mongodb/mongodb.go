// Package mongodb implements the repository interfaces on MongoDB.
//
// The services work against the interfaces in internal/repository; all
// driver-level concerns live here: filter shapes, aggregation pipelines,
// duplicate-key detection, and index management. Connection retrying keeps
// startup resilient when the database comes up after the service.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection         = "users"
	videosCollection        = "videos"
	subscriptionsCollection = "subscriptions"

	connectAttempts = 3
	connectInterval = 2 * time.Second
)

// DB wraps the mongo client and database handle and implements the
// repository interfaces. The server owns it: one DB per process, created at
// startup, closed on shutdown.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping, and ensures
// the unique indexes the User invariants rely on. The connection is retried
// a few times so the service survives the database starting slightly later.
func New(ctx context.Context, uri, database string) (*DB, error) {
	var client *mongo.Client
	var err error

	for attempt := 0; attempt < connectAttempts; attempt++ {
		client, err = mongo.Connect(options.Client().
			ApplyURI(uri).
			SetConnectTimeout(10 * time.Second))
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				break
			}
			_ = client.Disconnect(ctx)
		}
		time.Sleep(connectInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting to %q: %w", database, err)
	}

	db := &DB{
		client: client,
		db:     client.Database(database),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return db, nil
}

// ensureIndexes creates the unique indexes on username and email, plus the
// subscription lookup indexes. CreateMany is idempotent for identical specs.
func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating user indexes: %w", err)
	}

	_, err = db.db.Collection(subscriptionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel", Value: 1}}},
		{Keys: bson.D{{Key: "subscriber", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating subscription indexes: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// Close disconnects the client. Call during graceful shutdown.
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// users returns the users collection handle.
func (db *DB) users() *mongo.Collection {
	return db.db.Collection(usersCollection)
}

func (db *DB) videos() *mongo.Collection {
	return db.db.Collection(videosCollection)
}

func (db *DB) subscriptions() *mongo.Collection {
	return db.db.Collection(subscriptionsCollection)
}
