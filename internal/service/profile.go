package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kunals/vidstream/internal/apperror"
	"github.com/kunals/vidstream/internal/model"
	"github.com/kunals/vidstream/internal/repository"
)

// ProfileService builds the read-only derived views: a channel profile with
// subscription counts, and a user's resolved watch history.
//
// The joins are expressed as explicit repository calls (count, exists,
// fetch-with-projection) rather than a pipeline handed through the service,
// so the store's query syntax stays inside the mongodb package.
type ProfileService struct {
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	videos repository.VideoRepository
	logger *slog.Logger
}

// NewProfileService wires the service.
func NewProfileService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	videos repository.VideoRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:  users,
		subs:   subs,
		videos: videos,
		logger: logger,
	}
}

// GetChannelProfile returns the channel view for username. viewerID may be
// empty (anonymous): the profile is still returned, with IsSubscribed false.
// Usernames are matched on their stored normalized form, so the lookup is
// effectively case-insensitive.
func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelView, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	channel, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/profile: looking up channel %q: %w", username, err)
	}
	channelID := channel.ID.Hex()

	subscribers, err := s.subs.CountSubscribers(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: counting subscribers: %w", err)
	}

	subscribedTo, err := s.subs.CountSubscribedTo(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: counting subscriptions: %w", err)
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = s.subs.IsSubscribed(ctx, viewerID, channelID)
		if err != nil {
			return nil, fmt.Errorf("service/profile: checking subscription: %w", err)
		}
	}

	return &model.ChannelView{
		ID:                channelID,
		Username:          channel.Username,
		Email:             channel.Email,
		FullName:          channel.FullName,
		Avatar:            channel.Avatar,
		CoverImage:        channel.CoverImage,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// GetWatchHistory returns the user's watch history in stored order, each
// entry carrying the minimal owner projection. Empty history is an empty
// slice, never an error.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID string) ([]model.VideoView, error) {
	history, err := s.videos.WatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching watch history of %s: %w", userID, err)
	}

	return history, nil
}
