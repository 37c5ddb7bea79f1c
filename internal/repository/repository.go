// Package repository defines the store interfaces the services depend on.
// The concrete MongoDB implementation lives in repository/mongodb; services
// only ever see these interfaces, so the driver's filter and pipeline syntax
// never leaks into business logic.
package repository

import (
	"context"

	"github.com/kunals/vidstream/internal/model"
)

// UserUpdate names the profile fields a single update may overwrite.
// Only non-nil fields are written, and each update is one atomic $set —
// there is no read-modify-write at the application layer.
type UserUpdate struct {
	FullName   *string
	Email      *string
	Username   *string
	Avatar     *string
	CoverImage *string
	Password   *string // already hashed by the caller
}

type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict if the
	// username or email is already taken (unique index violation).
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the user or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByUsernameOrEmail finds the account matching either identifier
	// (both already normalized). Returns apperror.ErrNotFound if neither
	// matches.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// GetByUsername finds a channel by its normalized username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// Update applies the non-nil fields of upd in one atomic operation and
	// returns the updated record.
	Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error)

	// SetRefreshToken overwrites the stored refresh token. An empty token
	// unsets the field (logout).
	SetRefreshToken(ctx context.Context, id, token string) error

	// RotateRefreshToken atomically replaces the stored refresh token, but
	// only if the stored value still equals current. Returns false when the
	// condition fails — i.e. the presented token was already superseded.
	RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error)
}

// SubscriptionRepository is the read-only view over the subscriptions
// collection used for channel profiles.
type SubscriptionRepository interface {
	// CountSubscribers counts subscriptions where the channel is channelID.
	CountSubscribers(ctx context.Context, channelID string) (int64, error)

	// CountSubscribedTo counts subscriptions where the subscriber is userID.
	CountSubscribedTo(ctx context.Context, userID string) (int64, error)

	// IsSubscribed reports whether subscriberID subscribes to channelID.
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// VideoRepository resolves watch-history references against the read-only
// videos collection.
type VideoRepository interface {
	// WatchHistory returns the user's history in stored order, each entry
	// joined with the minimal owner projection. An empty history yields an
	// empty slice, not an error.
	WatchHistory(ctx context.Context, userID string) ([]model.VideoView, error)
}
