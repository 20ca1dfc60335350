package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"MusicSphere/core/catalog"
	"MusicSphere/logger"
	"MusicSphere/model"
)

const searchTimeout = 10 * time.Second

// SearchHandler GET /api/search?q=
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": []model.Track{}})
		return
	}
	if h.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog search is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	tracks, err := h.catalog.Search(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "catalog search is not configured")
			return
		}
		logger.Error("[SearchHandler] 搜索失败", logger.String("query", query), logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// ResolveHandler POST /api/resolve 解析单首歌曲的播放源，不影响会话
func (h *APIHandler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Track.ID == "" {
		writeError(w, http.StatusBadRequest, "track is required")
		return
	}
	src := h.resolver.Resolve(r.Context(), req.Track)
	if src != nil {
		writeJSON(w, http.StatusOK, src)
		return
	}
	// 另一个请求正在解析同一首歌
	if h.resolver.IsLoading(req.Track) {
		writeError(w, http.StatusAccepted, "resolution in progress")
		return
	}
	writeError(w, http.StatusNotFound, "no playable source")
}

// ResolverStatusHandler GET /api/resolver
func (h *APIHandler) ResolverStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cacheSize": h.resolver.CacheSize(),
		"sessions":  h.sessions.Count(),
		"players":   h.hub.Count(),
	})
}

// ClearResolverCacheHandler DELETE /api/resolver/cache
func (h *APIHandler) ClearResolverCacheHandler(w http.ResponseWriter, r *http.Request) {
	h.resolver.ClearCache()
	logger.Info("播放源缓存已清空")
	w.WriteHeader(http.StatusNoContent)
}
