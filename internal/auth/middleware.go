package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means only this package can read or write
// the authenticated identity in a request context — a plain string key
// could be shadowed by any other package.
type contextKey string

const userIDKey contextKey = "userID"

// AccessTokenCookie is the cookie the access token is issued under.
// The refresh token lives in its own cookie and is only ever read by the
// refresh endpoint, never by this middleware.
const AccessTokenCookie = "accessToken"

// RequireAuth enforces authentication on protected routes.
//
// It reads the access token from the HttpOnly cookie (or an Authorization
// Bearer header, for non-browser clients), verifies it, and stores the
// userID in the request context. Missing or invalid tokens end the request
// with 401 before the handler runs.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid token is present but
// never blocks the request.
//
// The channel-profile route uses this: anonymous viewers get the profile
// with isSubscribed=false, logged-in viewers get their real subscription
// state.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID finds the access token (cookie first, then Bearer header)
// and verifies it. Shared by RequireAuth and OptionalAuth.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	tokenStr := ""
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		tokenStr = cookie.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokenStr = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if tokenStr == "" {
		return "", http.ErrNoCookie
	}

	claims, err := tokens.VerifyAccessToken(tokenStr)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}
