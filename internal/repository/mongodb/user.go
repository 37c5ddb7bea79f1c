package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kunals/vidstream/internal/apperror"
	"github.com/kunals/vidstream/internal/model"
	"github.com/kunals/vidstream/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts the user and fills in its store-assigned ID. A unique-index
// violation on username or email surfaces as apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := db.users().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("username or email already in use")
		}
		return fmt.Errorf("mongodb: inserting user %q: %w", user.Username, err)
	}

	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("mongodb: unexpected inserted ID type %T", res.InsertedID)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by its hex ID.
// Returns apperror.ErrNotFound for unknown or malformed IDs.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user", id)
	}

	var u model.User
	err = db.users().FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetByUsernameOrEmail finds the account matching either identifier.
// Both values are expected pre-normalized (lowercased, trimmed).
func (db *DB) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: email}},
	}}}

	var u model.User
	err := db.users().FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("mongodb: getting user by identifier: %w", err)
	}

	return &u, nil
}

// GetByUsername finds a channel by its normalized username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := db.users().FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("channel", username)
		}
		return nil, fmt.Errorf("mongodb: getting user %q: %w", username, err)
	}

	return &u, nil
}

// Update applies the non-nil fields of upd in a single findOneAndUpdate and
// returns the post-update record. Duplicate username/email → ErrConflict.
func (db *DB) Update(ctx context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user", id)
	}

	set := bson.D{{Key: "updatedAt", Value: time.Now()}}
	if upd.FullName != nil {
		set = append(set, bson.E{Key: "fullName", Value: *upd.FullName})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.Username != nil {
		set = append(set, bson.E{Key: "username", Value: *upd.Username})
	}
	if upd.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *upd.Avatar})
	}
	if upd.CoverImage != nil {
		set = append(set, bson.E{Key: "coverImage", Value: *upd.CoverImage})
	}
	if upd.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *upd.Password})
	}

	var u model.User
	err = db.users().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.Conflict("username or email already in use")
		}
		return nil, fmt.Errorf("mongodb: updating user %s: %w", id, err)
	}

	return &u, nil
}

// SetRefreshToken overwrites the stored refresh token; an empty token unsets
// the field. One atomic write either way.
func (db *DB) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("user", id)
	}

	var update bson.D
	if token == "" {
		update = bson.D{
			{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now()}}},
		}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: token},
			{Key: "updatedAt", Value: time.Now()},
		}}}
	}

	_, err = db.users().UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("mongodb: setting refresh token for %s: %w", id, err)
	}

	return nil
}

// RotateRefreshToken swaps current for next only if current is still the
// stored value. The condition lives in the filter, so the check-and-swap is
// one atomic document update; a superseded token can never rotate again.
func (db *DB) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, apperror.NotFound("user", id)
	}

	res, err := db.users().UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: oid},
			{Key: "refreshToken", Value: current},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: next},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("mongodb: rotating refresh token for %s: %w", id, err)
	}

	return res.MatchedCount == 1, nil
}
