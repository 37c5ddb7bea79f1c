package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kunals/vidstream/internal/auth"
	"github.com/kunals/vidstream/internal/service"
)

// ProfileHandler serves the read-side endpoints: channel profiles and the
// viewer's watch history.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleChannelProfile returns a channel's public profile with subscriber
// counts. Authentication is optional: with a valid token the response also
// says whether the viewer subscribes to the channel.
//
// HTTP: GET /api/v1/users/c/{username}
func (h *ProfileHandler) HandleChannelProfile(w http.ResponseWriter, r *http.Request) {
	// "" when the request is anonymous; the service skips the viewer edge
	// check in that case.
	viewerID, _ := auth.UserIDFromContext(r.Context())

	username := chi.URLParam(r, "username")

	view, err := h.profiles.GetChannelProfile(r.Context(), viewerID, username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleWatchHistory returns the viewer's watch history, most recently
// recorded first, each entry carrying its owner's public fields.
//
// HTTP: GET /api/v1/users/history (auth required)
func (h *ProfileHandler) HandleWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	videos, err := h.profiles.GetWatchHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videos)
}
