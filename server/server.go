package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MusicSphere/config"
	"MusicSphere/logger"

	"github.com/gorilla/mux"
)

// corsMiddleware 允许跨域访问 API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter registers every endpoint on a fresh router.
// CORS wraps the router itself: mux only runs Use middleware on matched
// routes, so OPTIONS preflights would get 405 otherwise.
func NewRouter(h *APIHandler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// 曲库搜索
	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/keymap", h.KeymapHandler).Methods(http.MethodGet)

	// 播放会话
	router.HandleFunc("/api/session", h.AuthMiddleware(h.GetSessionHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/session/select", h.AuthMiddleware(h.SelectTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/{direction:next|previous}", h.AuthMiddleware(h.AdvanceHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/toggle", h.AuthMiddleware(h.TogglePlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/mute", h.AuthMiddleware(h.ToggleMuteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/ended", h.AuthMiddleware(h.ReportEndedHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/seek", h.AuthMiddleware(h.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/volume", h.AuthMiddleware(h.VolumeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/mode", h.AuthMiddleware(h.SetModeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/key", h.AuthMiddleware(h.KeyEventHandler)).Methods(http.MethodPost)

	// 播放队列
	router.HandleFunc("/api/queue", h.AuthMiddleware(h.GetQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/queue", h.AuthMiddleware(h.QueueClearHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/queue/{how:append|insert-next}", h.AuthMiddleware(h.QueueAddHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/queue/move", h.AuthMiddleware(h.QueueMoveHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/queue/play/{index:[0-9]+}", h.AuthMiddleware(h.QueuePlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/queue/{index:-?[0-9]+}", h.AuthMiddleware(h.QueueRemoveHandler)).Methods(http.MethodDelete)

	// 播放源解析
	router.HandleFunc("/api/resolve", h.AuthMiddleware(h.ResolveHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/resolver", h.AuthMiddleware(h.ResolverStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/resolver/cache", h.AuthMiddleware(h.ClearResolverCacheHandler)).Methods(http.MethodDelete)

	// 收藏
	router.HandleFunc("/api/likes", h.AuthMiddleware(h.ListLikesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/likes", h.AuthMiddleware(h.LikeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/likes/toggle", h.AuthMiddleware(h.ToggleLikeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/likes/{trackId}", h.AuthMiddleware(h.LikeStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/likes/{trackId}", h.AuthMiddleware(h.UnlikeHandler)).Methods(http.MethodDelete)

	// 歌单
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", h.AuthMiddleware(h.PlaylistSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/songs", h.AuthMiddleware(h.AddPlaylistSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{trackId}", h.AuthMiddleware(h.RemovePlaylistSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/play", h.AuthMiddleware(h.PlayPlaylistHandler)).Methods(http.MethodPost)

	// 播放器 WebSocket
	router.HandleFunc("/ws/player", h.PlayerWebSocketHandler)

	return corsMiddleware(router)
}

// Start initializes and starts the HTTP server, blocking until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	h := app.Handler
	go h.Hub().Run()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      NewRouter(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号或启动失败
	select {
	case <-stop:
	case err := <-errCh:
		h.Hub().Stop()
		h.sessions.CloseAll()
		return err
	}
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	h.Hub().Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	h.sessions.CloseAll()

	logger.Info("Server stopped")
	return nil
}
