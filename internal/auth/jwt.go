package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "vidstream"

// Distinguishable verification failures. Callers that need to tell an
// expired token from a tampered one (e.g. to hint the client to refresh)
// check these with errors.Is; everything else treats both as unauthorized.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService issues and verifies the two session tokens.
//
// Access tokens are short-lived and carry the identity claims the frontend
// renders from (email, username, full name). Refresh tokens are long-lived
// and carry only the subject — they exist solely to mint new pairs.
//
// The two kinds are signed with SEPARATE secrets. That alone guarantees a
// refresh token can never pass access-token verification (and vice versa),
// with no extra "kind" claim to forget to check.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// TokenConfig carries the signing secrets and lifetimes for NewTokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration // e.g. 15m
	RefreshTTL    time.Duration // e.g. 240h (10 days)
}

// NewTokenService validates the config and builds a TokenService.
// Secrets must be at least 16 characters and must differ from each other.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) < 16 || len(cfg.RefreshSecret) < 16 {
		return nil, errors.New("auth: token secrets must be at least 16 characters")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// AccessClaims is the access-token payload: the registered claims plus the
// identity fields embedded for the client's convenience.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the registered claims; the subject is the user ID.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// AccessTokenUser is the slice of the user record that goes into an access
// token. Keeping it a dedicated struct means the auth package doesn't import
// the model package.
type AccessTokenUser struct {
	ID       string
	Email    string
	Username string
	FullName string
}

// IssueAccessToken signs a short-lived access token for the given user.
func (s *TokenService) IssueAccessToken(user AccessTokenUser) (string, error) {
	now := time.Now()

	c := AccessClaims{
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken signs a long-lived refresh token carrying only the user
// ID. It always returns the fully materialized signed string — the caller
// persists exactly this value on the user record for rotation checks.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()

	c := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing refresh token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken parses and verifies an access token, returning its
// claims. Fails with ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	c := &AccessClaims{}
	if err := s.verify(tokenStr, c, s.accessSecret); err != nil {
		return nil, err
	}
	return c, nil
}

// VerifyRefreshToken parses and verifies a refresh token, returning the
// user ID from its subject. Fails with ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) VerifyRefreshToken(tokenStr string) (string, error) {
	c := &refreshClaims{}
	if err := s.verify(tokenStr, c, s.refreshSecret); err != nil {
		return "", err
	}
	return c.Subject, nil
}

// verify runs the shared validation: HS256 only (prevents algorithm
// confusion), issuer pinned, expiry required. Library errors are collapsed
// into the two package sentinels so callers never depend on jwt internals.
func (s *TokenService) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return nil
}
