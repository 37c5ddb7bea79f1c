package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with fixed, known secrets so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret-at-least-16-chars",
		RefreshSecret: "refresh-secret-at-least-16-char",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    10 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func testUser() AccessTokenUser {
	return AccessTokenUser{
		ID:       "68b1c2d3e4f5a6b7c8d9e0f1",
		Email:    "ada@x.com",
		Username: "ada",
		FullName: "Ada Lovelace",
	}
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{
		AccessSecret:  "short",
		RefreshSecret: "refresh-secret-at-least-16-char",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_IdenticalSecrets(t *testing.T) {
	_, err := NewTokenService(TokenConfig{
		AccessSecret:  "the-same-secret-for-both-kinds!",
		RefreshSecret: "the-same-secret-for-both-kinds!",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err == nil {
		t.Fatal("NewTokenService() should reject identical access and refresh secrets")
	}
}

func TestIssueAccessToken_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccessToken() returned empty token")
	}

	// header.payload.signature
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token doesn't look like a JWT: %d parts", len(parts))
	}
}

func TestIssueRefreshToken_AlwaysMaterialized(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueRefreshToken() must return a signed string, not empty")
	}
}

func TestVerifyAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	user := testUser()

	token, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	claims, err := ts.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Email != user.Email || claims.Username != user.Username || claims.FullName != user.FullName {
		t.Errorf("identity claims = %q/%q/%q, want %q/%q/%q",
			claims.Email, claims.Username, claims.FullName,
			user.Email, user.Username, user.FullName)
	}
}

func TestVerifyRefreshToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefreshToken("user-42")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	userID, err := ts.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want %q", userID, "user-42")
	}
}

func TestVerify_KindsAreNotInterchangeable(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.IssueAccessToken(testUser())
	refresh, _ := ts.IssueRefreshToken("user-1")

	// A refresh token must not pass access verification and vice versa —
	// the kinds are signed with different secrets.
	if _, err := ts.VerifyAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccessToken(refresh token) error = %v, want ErrTokenInvalid", err)
	}
	if _, err := ts.VerifyRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyRefreshToken(access token) error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	short, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret-at-least-16-chars",
		RefreshSecret: "refresh-secret-at-least-16-char",
		AccessTTL:     time.Millisecond,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := short.IssueAccessToken(testUser())
	time.Sleep(5 * time.Millisecond)

	if _, err := short.VerifyAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("VerifyAccessToken(expired) error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_GarbageToken(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.VerifyAccessToken("this.is.garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccessToken(garbage) error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService(TokenConfig{
		AccessSecret:  "a-completely-different-secret!!",
		RefreshSecret: "another-different-secret-here!!",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := other.IssueAccessToken(testUser())

	if _, err := ts.VerifyAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccessToken(wrong secret) error = %v, want ErrTokenInvalid", err)
	}
}
