package server

import (
	"net/http"
	"strconv"

	"MusicSphere/core/keymap"
	"MusicSphere/core/player"
	"MusicSphere/core/session"
	"MusicSphere/model"

	"github.com/gorilla/mux"
)

type selectRequest struct {
	Track    model.Track   `json:"track"`
	SongList []model.Track `json:"songList,omitempty"`
}

type trackRequest struct {
	Track   model.Track `json:"track"`
	TrackID string      `json:"trackId,omitempty"`
}

// GetSessionHandler 当前播放状态
func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// SelectTrackHandler POST /api/session/select
func (h *APIHandler) SelectTrackHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Track.ID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.SelectTrack(req.Track, req.SongList))
}

// AdvanceHandler POST /api/session/{direction:next|previous}
func (h *APIHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	dir, valid := session.ParseDirection(mux.Vars(r)["direction"])
	if !valid {
		writeError(w, http.StatusNotFound, "Unknown direction")
		return
	}
	writeJSON(w, http.StatusOK, s.Advance(dir))
}

func (h *APIHandler) TogglePlayHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.TogglePlay())
}

func (h *APIHandler) ToggleMuteHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.ToggleMute())
}

// ReportEndedHandler 供没有 WebSocket 的客户端上报播放结束
func (h *APIHandler) ReportEndedHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req trackRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ReportEnded(req.TrackID))
}

func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Seconds == nil {
		writeError(w, http.StatusBadRequest, "seconds is required")
		return
	}
	state, err := s.Seek(*req.Seconds)
	if err != nil {
		writeDomainError(w, err, "seek")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// VolumeHandler accepts either an absolute volume or a delta.
func (h *APIHandler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Volume *float64 `json:"volume"`
		Delta  *float64 `json:"delta"`
	}
	if err := decodeJSON(w, r, &req); err != nil || (req.Volume == nil && req.Delta == nil) {
		writeError(w, http.StatusBadRequest, "volume or delta is required")
		return
	}
	if req.Volume != nil {
		writeJSON(w, http.StatusOK, s.SetVolume(*req.Volume))
		return
	}
	writeJSON(w, http.StatusOK, s.AdjustVolume(*req.Delta))
}

func (h *APIHandler) SetModeHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kind, err := player.ParseKind(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.SetMode(kind))
}

// KeyEventHandler 处理客户端转发的键盘事件
func (h *APIHandler) KeyEventHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var ev keymap.KeyEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	action, handled := h.keymap.Dispatch(s, ev)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"action":  action,
		"handled": handled,
		"state":   s.State(),
	})
}

func (h *APIHandler) KeymapHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bindings": h.keymap.Bindings(),
	})
}

// ========== 播放队列 ==========

func (h *APIHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.Queue())
}

// QueueAddHandler POST /api/queue/{how:append|insert-next}
func (h *APIHandler) QueueAddHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Track.ID == "" {
		writeError(w, http.StatusBadRequest, "track is required")
		return
	}
	if mux.Vars(r)["how"] == "insert-next" {
		writeJSON(w, http.StatusOK, s.InsertNext(req.Track))
		return
	}
	writeJSON(w, http.StatusOK, s.Append(req.Track))
}

func (h *APIHandler) QueueMoveHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.From == nil || req.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	writeJSON(w, http.StatusOK, s.Move(*req.From, *req.To))
}

func (h *APIHandler) QueueRemoveHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid index")
		return
	}
	writeJSON(w, http.StatusOK, s.Remove(index))
}

func (h *APIHandler) QueueClearHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.ClearQueue())
}

func (h *APIHandler) QueuePlayHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid index")
		return
	}
	writeJSON(w, http.StatusOK, s.PlayIndex(index))
}
