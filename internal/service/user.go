// Package service holds the business logic. UserService drives the session
// lifecycle; ProfileService builds the derived channel/history views.
//
// The layering mirrors the HTTP stack top to bottom:
//
//	handlers (HTTP)  →  services (rules)  →  repositories (MongoDB)
//	                 ↘  auth (bcrypt, JWT)
//	                 ↘  media (Cloudinary)
//
// Services never see HTTP, cookies, or multipart forms — handlers translate
// requests into the explicit input structs below and map returned errors to
// status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kunals/vidstream/internal/apperror"
	"github.com/kunals/vidstream/internal/auth"
	"github.com/kunals/vidstream/internal/events"
	"github.com/kunals/vidstream/internal/media"
	"github.com/kunals/vidstream/internal/model"
	"github.com/kunals/vidstream/internal/repository"
)

// UserService orchestrates registration, login, logout, token refresh, and
// account updates. Every token and password decision funnels through here;
// repositories only persist, handlers only translate.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	uploader  media.Uploader
	events    events.Publisher
	logger    *slog.Logger
}

// NewUserService wires the service. events may be nil when no broker is
// configured; publishing is skipped in that case.
func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	uploader media.Uploader,
	ev events.Publisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		uploader:  uploader,
		events:    ev,
		logger:    logger,
	}
}

// RegisterInput carries the registration fields plus the local temp paths of
// the uploaded images. AvatarPath is required; CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the account by username or email; the handler
// accepts either field and passes whichever was supplied.
type LoginInput struct {
	Identifier string
	Password   string
}

// LoginResult bundles the sanitized user with the freshly issued token pair
// so the handler can set cookies and respond in one step.
type LoginResult struct {
	User         model.UserView
	AccessToken  string
	RefreshToken string
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type UpdateProfileInput struct {
	FullName string
	Email    string
	Username string
}

// normalize lowercases and trims an identifier the way the store keeps it.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a new account.
//
// Order of operations matters: all validation and the uniqueness pre-check
// run before anything is uploaded or written, so a failed registration
// leaves no trace. The avatar upload is fatal on failure; the cover image
// is optional and degrades to empty.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.UserView, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalize(in.Email)
	username := normalize(in.Username)

	switch {
	case fullName == "":
		return nil, apperror.ValidationFailed("fullName", "full name is required")
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	case strings.TrimSpace(in.Password) == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	case in.AvatarPath == "":
		return nil, apperror.ValidationFailed("avatar", "avatar file is required")
	}

	// Uniqueness pre-check before any mutation. The unique indexes still
	// back this up if a concurrent registration slips between check and
	// insert.
	_, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return nil, apperror.Conflict("username or email already in use")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/user: checking existing user: %w", err)
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil {
		s.logger.Error("avatar upload failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upload("avatar upload failed")
	}

	// Cover image is optional: a failed upload is logged and stored empty.
	coverURL := ""
	if in.CoverImagePath != "" {
		coverURL, err = s.uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			s.logger.Warn("cover image upload failed, continuing without it",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
			coverURL = ""
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating user %q: %w", username, err)
	}

	// Read the record back through the store. If it is gone the write was
	// not durable and the client must see a server error, not a view built
	// from in-memory state.
	created, err := s.users.GetByID(ctx, user.ID.Hex())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Internal("user record missing after create")
		}
		return nil, fmt.Errorf("service/user: fetching created user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", created.ID.Hex()),
		slog.String("username", created.Username),
	)

	if s.events != nil {
		ev := events.UserRegistered{
			UserID:   created.ID.Hex(),
			Username: created.Username,
			Email:    created.Email,
			FullName: created.FullName,
			At:       time.Now(),
		}
		if err := s.events.PublishUserRegistered(ctx, ev); err != nil {
			s.logger.Warn("publishing user.registered failed",
				slog.String("userID", ev.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	view := created.View()
	return &view, nil
}

// Login authenticates by username or email and starts a session. A fresh
// refresh token replaces whatever was stored, invalidating any previous one.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	identifier := normalize(in.Identifier)
	if identifier == "" {
		return nil, apperror.ValidationFailed("identifier", "username or email is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, identifier, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", identifier)
		}
		return nil, fmt.Errorf("service/user: looking up %q: %w", identifier, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	accessToken, refreshToken, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID.Hex(), refreshToken); err != nil {
		return nil, fmt.Errorf("service/user: storing refresh token: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID.Hex()),
		slog.String("username", user.Username),
	)

	return &LoginResult{
		User:         user.View(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token. Idempotent: logging out twice, or
// with no active session, succeeds.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("service/user: clearing refresh token: %w", err)
	}

	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token must verify AND exactly equal the stored one; the swap is a single
// conditional update, so a superseded token loses even under a concurrent
// refresh race.
func (s *UserService) Refresh(ctx context.Context, incoming string) (*TokenPair, error) {
	if strings.TrimSpace(incoming) == "" {
		return nil, apperror.Unauthorized("refresh token is required")
	}

	userID, err := s.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	accessToken, refreshToken, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	rotated, err := s.users.RotateRefreshToken(ctx, userID, incoming, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("service/user: rotating refresh token: %w", err)
	}
	if !rotated {
		// The token verified but is no longer the stored one: it was
		// already used, or the session was logged out.
		s.logger.Warn("refresh token reuse detected", slog.String("userID", userID))
		return nil, apperror.Unauthorized("refresh token is expired or already used")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ChangePassword verifies the old password and persists a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if strings.TrimSpace(in.NewPassword) == "" {
		return apperror.ValidationFailed("newPassword", "new password is required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return apperror.ValidationFailed("confirmPassword", "passwords do not match")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.OldPassword); err != nil {
		return apperror.Unauthorized("old password is incorrect")
	}

	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("service/user: hashing new password: %w", err)
	}

	if _, err := s.users.Update(ctx, userID, repository.UserUpdate{Password: &hash}); err != nil {
		return fmt.Errorf("service/user: updating password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// GetCurrentUser returns the sanitized view of the authenticated user.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*model.UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	view := user.View()
	return &view, nil
}

// UpdateProfile overwrites fullName, email, and username in one atomic
// update. All three are required; identifiers are re-normalized.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.UserView, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalize(in.Email)
	username := normalize(in.Username)

	switch {
	case fullName == "":
		return nil, apperror.ValidationFailed("fullName", "full name is required")
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	user, err := s.users.Update(ctx, userID, repository.UserUpdate{
		FullName: &fullName,
		Email:    &email,
		Username: &username,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: updating profile of %s: %w", userID, err)
	}

	view := user.View()
	return &view, nil
}

// UpdateAvatar uploads a new avatar and stores its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*model.UserView, error) {
	return s.updateImage(ctx, userID, localPath, "avatar")
}

// UpdateCoverImage uploads a new cover image and stores its URL. Unlike at
// registration, an explicit cover update that fails is an error — the user
// asked for exactly this change.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*model.UserView, error) {
	return s.updateImage(ctx, userID, localPath, "coverImage")
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath, field string) (*model.UserView, error) {
	if localPath == "" {
		return nil, apperror.ValidationFailed(field, field+" file is required")
	}

	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.logger.Error("image upload failed",
			slog.String("userID", userID),
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upload(field + " upload failed")
	}

	upd := repository.UserUpdate{}
	if field == "avatar" {
		upd.Avatar = &url
	} else {
		upd.CoverImage = &url
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating %s of %s: %w", field, userID, err)
	}

	view := user.View()
	return &view, nil
}

// issueTokenPair mints both session tokens for the user.
func (s *UserService) issueTokenPair(user *model.User) (access, refresh string, err error) {
	access, err = s.tokens.IssueAccessToken(auth.AccessTokenUser{
		ID:       user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return "", "", fmt.Errorf("service/user: issuing access token: %w", err)
	}

	refresh, err = s.tokens.IssueRefreshToken(user.ID.Hex())
	if err != nil {
		return "", "", fmt.Errorf("service/user: issuing refresh token: %w", err)
	}

	return access, refresh, nil
}
