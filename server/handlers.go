package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"MusicSphere/core/auth"
	"MusicSphere/core/keymap"
	"MusicSphere/core/library"
	"MusicSphere/core/player"
	"MusicSphere/core/resolver"
	"MusicSphere/core/session"
	"MusicSphere/logger"
	"MusicSphere/model"
)

// Catalog is the track search the API exposes.
type Catalog interface {
	Search(ctx context.Context, query string) ([]model.Track, error)
}

// APIHandler 处理所有API请求
type APIHandler struct {
	catalog  Catalog
	resolver *resolver.Resolver
	sessions *session.Manager
	library  *library.Service
	issuer   *auth.Issuer
	keymap   *keymap.Keymap
	hub      *PlayerHub
}

// Deps 组装 APIHandler 所需的组件
type Deps struct {
	Catalog  Catalog
	Resolver *resolver.Resolver
	Sessions *session.Manager
	Library  *library.Service
	Issuer   *auth.Issuer
	Keymap   *keymap.Keymap
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(d Deps) *APIHandler {
	if d.Keymap == nil {
		d.Keymap = keymap.New()
	}
	h := &APIHandler{
		catalog:  d.Catalog,
		resolver: d.Resolver,
		sessions: d.Sessions,
		library:  d.Library,
		issuer:   d.Issuer,
		keymap:   d.Keymap,
	}
	h.hub = NewPlayerHub(d.Sessions, d.Keymap)
	return h
}

// Hub 播放器 WebSocket 管理中心
func (h *APIHandler) Hub() *PlayerHub { return h.hub }

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("写入响应失败", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// statusFor 将领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, session.ErrInert):
		return http.StatusConflict
	case errors.Is(err, player.ErrSeekUnsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError 5xx 时不把内部错误暴露给客户端
func writeDomainError(w http.ResponseWriter, err error, action string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(action+"失败", logger.ErrorField(err))
		writeError(w, status, action+" failed")
		return
	}
	writeError(w, status, err.Error())
}

func (h *APIHandler) session(r *http.Request) (*session.Session, int64, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		return nil, 0, false
	}
	return h.sessions.Get(userID), userID, true
}
