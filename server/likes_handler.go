package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ListLikesHandler GET /api/likes
func (h *APIHandler) ListLikesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	tracks, err := h.library.LikedTracks(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "list likes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// LikeHandler POST /api/likes
func (h *APIHandler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.library.Like(r.Context(), userID, req.Track); err != nil {
		writeDomainError(w, err, "like")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": true})
}

// UnlikeHandler DELETE /api/likes/{trackId}
func (h *APIHandler) UnlikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.library.Unlike(r.Context(), userID, mux.Vars(r)["trackId"]); err != nil {
		writeDomainError(w, err, "unlike")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": false})
}

// LikeStatusHandler GET /api/likes/{trackId}
func (h *APIHandler) LikeStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	liked, err := h.library.IsLiked(r.Context(), userID, mux.Vars(r)["trackId"])
	if err != nil {
		writeDomainError(w, err, "like status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// ToggleLikeHandler POST /api/likes/toggle
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	liked, err := h.library.ToggleLike(r.Context(), userID, req.Track)
	if err != nil {
		writeDomainError(w, err, "toggle like")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
