package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/kunals/vidstream/internal/auth"
	"github.com/kunals/vidstream/internal/media"
	"github.com/kunals/vidstream/internal/model"
	"github.com/kunals/vidstream/internal/service"
)

// maxUploadBytes caps the in-memory part of multipart parsing. Bigger files
// spill to disk and move to the temp dir right after.
const maxUploadBytes = 16 << 20 // 16 MiB

const refreshTokenCookie = "refreshToken"

// UserHandler translates HTTP requests into UserService calls: multipart
// forms into input structs, service results into JSON plus token cookies.
//
// Both session tokens travel as HttpOnly, Secure cookies AND in the JSON
// body. Browsers rely on the cookies; mobile clients read the body and send
// the access token as a Bearer header instead.
type UserHandler struct {
	users  *service.UserService
	tmpDir string
	// cookie lifetimes, matching the token TTLs
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewUserHandler creates a UserHandler. tmpDir is where incoming uploads
// are spooled before they go to the media store.
func NewUserHandler(users *service.UserService, tmpDir string, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		tmpDir:     tmpDir,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/v1/users/register
// Body: multipart/form-data with fields fullName, email, username, password
// and files avatar (required), coverImage (optional).
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "expected multipart form data",
		})
		return
	}

	avatarPath, cleanupAvatar := h.spoolFormFile(r, "avatar")
	coverPath, cleanupCover := h.spoolFormFile(r, "coverImage")
	// The uploader deletes temp files it is handed; these cover the paths
	// that never reach an upload attempt (e.g. validation failure).
	defer cleanupAvatar()
	defer cleanupCover()

	view, err := h.users.Register(r.Context(), service.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleLogin starts a session.
//
// HTTP: POST /api/v1/users/login
// Body: {"username": "...", "email": "...", "password": "..."}. Either
// identifier is accepted; username wins when both are present.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	identifier := body.Username
	if identifier == "" {
		identifier = body.Email
	}

	res, err := h.users.Login(r.Context(), service.LoginInput{
		Identifier: identifier,
		Password:   body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, res.AccessToken, res.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         res.User,
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

// HandleLogout ends the session: the stored refresh token is cleared and
// both cookies are expired.
//
// HTTP: POST /api/v1/users/logout (auth required)
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if err := h.users.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleRefresh exchanges a refresh token for a new pair.
//
// HTTP: POST /api/v1/users/refresh-token
// The token comes from the refreshToken cookie or, failing that, the JSON
// body {"refreshToken": "..."}.
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		// Body is optional when the cookie is present; decode errors here
		// just mean there is no usable token.
		_ = json.NewDecoder(r.Body).Decode(&body)
		token = body.RefreshToken
	}

	pair, err := h.users.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// HandleChangePassword replaces the password after verifying the old one.
//
// HTTP: POST /api/v1/users/change-password (auth required)
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var body struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	err := h.users.ChangePassword(r.Context(), userID, service.ChangePasswordInput{
		OldPassword:     body.OldPassword,
		NewPassword:     body.NewPassword,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// HandleMe returns the authenticated user's sanitized profile.
//
// HTTP: GET /api/v1/users/me (auth required)
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	view, err := h.users.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleUpdateAccount overwrites fullName, email, and username.
//
// HTTP: PATCH /api/v1/users/update-account (auth required)
func (h *UserHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	view, err := h.users.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		FullName: body.FullName,
		Email:    body.Email,
		Username: body.Username,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleUpdateAvatar replaces the avatar.
//
// HTTP: PATCH /api/v1/users/avatar (auth required)
// Body: multipart/form-data with file field "avatar".
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.users.UpdateAvatar)
}

// HandleUpdateCoverImage replaces the cover image.
//
// HTTP: PATCH /api/v1/users/cover-image (auth required)
// Body: multipart/form-data with file field "coverImage".
func (h *UserHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.users.UpdateCoverImage)
}

// handleImageUpdate is the shared flow for avatar and cover-image updates:
// spool the multipart file to the temp dir, call the service, return the
// refreshed view.
func (h *UserHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID, localPath string) (*model.UserView, error),
) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "expected multipart form data",
		})
		return
	}

	path, cleanup := h.spoolFormFile(r, field)
	defer cleanup()

	view, err := update(r.Context(), userID, path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// spoolFormFile saves the named multipart file to the temp dir and returns
// its local path plus a cleanup func. The path is "" when the field is
// absent; the services treat that as "no file". cleanup is a no-op for
// paths the uploader has already removed.
func (h *UserHandler) spoolFormFile(r *http.Request, field string) (string, func()) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", func() {}
	}
	defer file.Close()

	path, err := h.saveTemp(file, header)
	if err != nil {
		h.logger.Error("spooling uploaded file failed",
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		return "", func() {}
	}

	return path, func() { _ = os.Remove(path) }
}

func (h *UserHandler) saveTemp(file multipart.File, header *multipart.FileHeader) (string, error) {
	return media.SaveTemp(file, header.Filename, h.tmpDir)
}

// setTokenCookies issues both session cookies. HttpOnly keeps them away
// from scripts; Secure keeps them off plaintext transports.
func (h *UserHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *UserHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
