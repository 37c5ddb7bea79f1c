// Package model defines the documents stored in MongoDB and the sanitized
// views the API returns.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account.
//
// Username and email are stored lowercased and trimmed; uniqueness is
// enforced by unique indexes on both fields. PasswordHash and RefreshToken
// are tagged `json:"-"` as a second line of defence — responses are built
// from UserView, never from this struct directly.
//
// RefreshToken holds the single currently-valid refresh token for the
// account. It is replaced on every login and refresh, and unset on logout.
// A presented refresh token that does not exactly match this field is a
// reuse of a superseded token and is rejected.
type User struct {
	ID            bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username      string          `bson:"username" json:"username"`
	Email         string          `bson:"email" json:"email"`
	FullName      string          `bson:"fullName" json:"fullName"`
	Avatar        string          `bson:"avatar" json:"avatar"`
	CoverImage    string          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	WatchHistory  []bson.ObjectID `bson:"watchHistory,omitempty" json:"-"`
	PasswordHash  string          `bson:"password" json:"-"`
	RefreshToken  string          `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// UserView is the sanitized projection of a User returned by every
// operation. It never carries the password hash or refresh token.
type UserView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View returns the sanitized projection of u.
func (u *User) View() UserView {
	return UserView{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ChannelView is a User seen as a subscribable channel, with counts derived
// from the subscriptions collection.
type ChannelView struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage,omitempty"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}
