package server

import (
	"net/http"

	"MusicSphere/model"

	"github.com/gorilla/mux"
)

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// ListPlaylistsHandler GET /api/playlists
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlists, err := h.library.Playlists(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "list playlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// CreatePlaylistHandler POST /api/playlists
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := h.library.CreatePlaylist(r.Context(), userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		writeDomainError(w, err, "create playlist")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPlaylistHandler GET /api/playlists/{id}
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	p, err := h.library.Playlist(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "get playlist")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePlaylistHandler PUT /api/playlists/{id}
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var upd model.PlaylistUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := h.library.UpdatePlaylist(r.Context(), userID, mux.Vars(r)["id"], upd)
	if err != nil {
		writeDomainError(w, err, "update playlist")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylistHandler DELETE /api/playlists/{id}
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.library.DeletePlaylist(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err, "delete playlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaylistSongsHandler GET /api/playlists/{id}/songs
func (h *APIHandler) PlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	tracks, err := h.library.Songs(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "list playlist songs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// AddPlaylistSongHandler POST /api/playlists/{id}/songs
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := h.library.AddSong(r.Context(), userID, mux.Vars(r)["id"], req.Track); err != nil {
		writeDomainError(w, err, "add playlist song")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "added"})
}

// RemovePlaylistSongHandler DELETE /api/playlists/{id}/songs/{trackId}
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	vars := mux.Vars(r)
	if err := h.library.RemoveSong(r.Context(), userID, vars["id"], vars["trackId"]); err != nil {
		writeDomainError(w, err, "remove playlist song")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlayPlaylistHandler POST /api/playlists/{id}/play 把歌单交给播放会话
func (h *APIHandler) PlayPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	tracks, err := h.library.Songs(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err, "play playlist")
		return
	}
	if len(tracks) == 0 {
		writeError(w, http.StatusBadRequest, "playlist is empty")
		return
	}
	if req.Index < 0 || req.Index >= len(tracks) {
		writeError(w, http.StatusBadRequest, "Invalid index")
		return
	}
	writeJSON(w, http.StatusOK, s.SelectTrack(tracks[req.Index], tracks))
}
