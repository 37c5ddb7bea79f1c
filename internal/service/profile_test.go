package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/kunals/vidstream/internal/apperror"
	"github.com/kunals/vidstream/internal/model"
)

// fakeSubsRepo holds subscription edges as subscriber->channel pairs.
type fakeSubsRepo struct {
	edges [][2]string // [subscriberID, channelID]
}

func (f *fakeSubsRepo) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	var n int64
	for _, e := range f.edges {
		if e[1] == channelID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubsRepo) CountSubscribedTo(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, e := range f.edges {
		if e[0] == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubsRepo) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	for _, e := range f.edges {
		if e[0] == subscriberID && e[1] == channelID {
			return true, nil
		}
	}
	return false, nil
}

// fakeVideoRepo returns a canned watch history per user ID.
type fakeVideoRepo struct {
	history map[string][]model.VideoView
}

func (f *fakeVideoRepo) WatchHistory(_ context.Context, userID string) ([]model.VideoView, error) {
	if h, ok := f.history[userID]; ok {
		return h, nil
	}
	return []model.VideoView{}, nil
}

func newTestProfileService(t *testing.T, users *fakeUserRepo, subs *fakeSubsRepo, videos *fakeVideoRepo) *ProfileService {
	t.Helper()
	if subs == nil {
		subs = &fakeSubsRepo{}
	}
	if videos == nil {
		videos = &fakeVideoRepo{}
	}
	return NewProfileService(users, subs, videos, testLogger())
}

// seedChannel stores a user directly in the fake repo and returns its hex ID.
func seedChannel(t *testing.T, repo *fakeUserRepo, username string) string {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Channel " + username,
		Avatar:       "https://cdn.example.com/" + username + ".png",
		PasswordHash: "hash",
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding channel %q: %v", username, err)
	}
	return u.ID.Hex()
}

func TestGetChannelProfile_CountsAndSubscriptionState(t *testing.T) {
	users := newFakeUserRepo()
	channelID := seedChannel(t, users, "chai")
	viewerID := seedChannel(t, users, "viewer")

	subs := &fakeSubsRepo{edges: [][2]string{
		{viewerID, channelID},
		{bson.NewObjectID().Hex(), channelID},
		{bson.NewObjectID().Hex(), channelID},
	}}
	svc := newTestProfileService(t, users, subs, nil)

	view, err := svc.GetChannelProfile(context.Background(), viewerID, "chai")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}

	if view.SubscribersCount != 3 {
		t.Errorf("SubscribersCount = %d, want 3", view.SubscribersCount)
	}
	if !view.IsSubscribed {
		t.Error("IsSubscribed = false, want true for a subscribed viewer")
	}
}

func TestGetChannelProfile_AnonymousViewer(t *testing.T) {
	users := newFakeUserRepo()
	channelID := seedChannel(t, users, "chai")

	subs := &fakeSubsRepo{edges: [][2]string{
		{bson.NewObjectID().Hex(), channelID},
	}}
	svc := newTestProfileService(t, users, subs, nil)

	view, err := svc.GetChannelProfile(context.Background(), "", "chai")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if view.IsSubscribed {
		t.Error("IsSubscribed must be false for anonymous viewers")
	}
	if view.SubscribersCount != 1 {
		t.Errorf("SubscribersCount = %d, want 1", view.SubscribersCount)
	}
}

func TestGetChannelProfile_CaseInsensitiveLookup(t *testing.T) {
	users := newFakeUserRepo()
	seedChannel(t, users, "chai")
	svc := newTestProfileService(t, users, nil, nil)

	view, err := svc.GetChannelProfile(context.Background(), "", "  ChAi ")
	if err != nil {
		t.Fatalf("GetChannelProfile(mixed case) error = %v", err)
	}
	if view.Username != "chai" {
		t.Errorf("Username = %q, want %q", view.Username, "chai")
	}
}

func TestGetChannelProfile_BlankUsername(t *testing.T) {
	svc := newTestProfileService(t, newFakeUserRepo(), nil, nil)

	_, err := svc.GetChannelProfile(context.Background(), "", "   ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetChannelProfile(blank) error = %v, want ErrValidation", err)
	}
}

func TestGetChannelProfile_UnknownChannel(t *testing.T) {
	svc := newTestProfileService(t, newFakeUserRepo(), nil, nil)

	_, err := svc.GetChannelProfile(context.Background(), "", "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetChannelProfile(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestGetChannelProfile_NeverLeaksSecrets(t *testing.T) {
	users := newFakeUserRepo()
	seedChannel(t, users, "chai")
	svc := newTestProfileService(t, users, nil, nil)

	view, err := svc.GetChannelProfile(context.Background(), "", "chai")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}

	// ChannelView has no password or refresh-token fields by construction;
	// assert the view carries the public identity it should.
	if view.FullName == "" || view.Avatar == "" {
		t.Error("channel view missing public profile fields")
	}
}

func TestGetWatchHistory_Empty(t *testing.T) {
	users := newFakeUserRepo()
	userID := seedChannel(t, users, "fresh")
	svc := newTestProfileService(t, users, nil, nil)

	history, err := svc.GetWatchHistory(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetWatchHistory() error = %v", err)
	}
	if history == nil {
		t.Fatal("GetWatchHistory() returned nil, want empty slice")
	}
	if len(history) != 0 {
		t.Errorf("len(history) = %d, want 0", len(history))
	}
}

func TestGetWatchHistory_PreservesOrderAndOwner(t *testing.T) {
	users := newFakeUserRepo()
	userID := seedChannel(t, users, "watcher")

	first := model.VideoView{
		ID:    bson.NewObjectID(),
		Title: "newest",
		Owner: model.VideoOwner{FullName: "Chai", Username: "chai", Avatar: "a.png"},
	}
	second := model.VideoView{
		ID:    bson.NewObjectID(),
		Title: "older",
		Owner: model.VideoOwner{FullName: "Chai", Username: "chai", Avatar: "a.png"},
	}
	videos := &fakeVideoRepo{history: map[string][]model.VideoView{
		userID: {first, second},
	}}
	svc := newTestProfileService(t, users, nil, videos)

	history, err := svc.GetWatchHistory(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetWatchHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Title != "newest" || history[1].Title != "older" {
		t.Error("history order was not preserved")
	}
	if history[0].Owner.Username != "chai" {
		t.Errorf("Owner.Username = %q, want %q", history[0].Owner.Username, "chai")
	}
}
