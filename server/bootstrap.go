package server

import (
	"context"
	"errors"
	"fmt"

	"MusicSphere/cache"
	"MusicSphere/config"
	"MusicSphere/core/auth"
	"MusicSphere/core/catalog"
	"MusicSphere/core/keymap"
	"MusicSphere/core/library"
	"MusicSphere/core/resolver"
	"MusicSphere/core/session"
	"MusicSphere/core/youtube"
	"MusicSphere/db"
	"MusicSphere/logger"
	"MusicSphere/repository"
	"MusicSphere/storage"
)

// App 组装好的服务端组件
type App struct {
	Handler *APIHandler
	Mirror  *storage.Mirror // 未配置 MinIO 时为 nil

	closers []func() error
}

// Bootstrap connects the configured infrastructure and wires the handler.
// Redis, MySQL, MinIO, Spotify and YouTube are optional; missing ones
// degrade to in-memory stores or fewer resolver strategies.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("初始化 JWT 失败: %w", err)
	}

	// Redis 缓存
	var videoCache youtube.VideoIDCache
	var songCache library.SongCache
	if cfg.RedisEnabled() {
		client, err := db.ConnectRedis(cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.CloseRedis)
		videoCache = cache.NewVideoIDCache(client, cfg.VideoIDTTL)
		songCache = cache.NewPlaylistSongCache(client, cfg.PlaylistTTL)
	} else {
		logger.Warn("未配置 Redis，YouTube 查询与歌单不做缓存")
	}

	// 收藏与歌单存储
	var likes library.LikedStore
	var playlists library.PlaylistStore
	if cfg.DatabaseEnabled() {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, db.CloseGormDB)
		if err := db.AutoMigrateModels(); err != nil {
			app.Close()
			return nil, err
		}
		likes = repository.NewLikedSongRepository(gdb)
		playlists = repository.NewPlaylistRepository(gdb)
	} else {
		logger.Warn("未配置 DB_HOST，收藏与歌单保存在内存中")
		mem := library.NewMemoryStore()
		likes, playlists = mem, mem
	}

	// 播放源解析顺序：镜像 -> 代理提取 -> 嵌入
	var strategies []resolver.Strategy
	if cfg.MinioEnabled() {
		mirror, err := storage.InitMinio(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Mirror = mirror
		strategies = append(strategies, resolver.MirrorStrategy{Store: mirror})
	}
	if cfg.YouTubeAPIKey != "" {
		yt := youtube.NewClient(cfg.YouTubeAPIKey, videoCache,
			youtube.ProxiesFromConfig(cfg.CobaltURL, cfg.YtdlpURL, cfg.GenericProxyURL)...)
		if cfg.YouTubeBaseURL != "" {
			yt.SetBaseURL(cfg.YouTubeBaseURL)
		}
		strategies = append(strategies,
			resolver.ProxyStrategy{Videos: yt},
			resolver.EmbedStrategy{Videos: yt})
	} else {
		logger.Warn("未配置 YOUTUBE_API_KEY，没有试听地址的歌曲将无法播放")
	}
	res := resolver.New(strategies...)

	deps := Deps{
		Resolver: res,
		Sessions: session.NewManager(res),
		Library:  library.NewService(likes, playlists, songCache),
		Issuer:   issuer,
		Keymap:   keymap.New(),
	}

	spotify, err := catalog.NewClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	switch {
	case err == nil:
		deps.Catalog = spotify
	case errors.Is(err, catalog.ErrNotConfigured):
		logger.Warn("未配置 Spotify 凭据，搜索不可用")
	default:
		app.Close()
		return nil, err
	}

	if cfg.KeymapPath != "" {
		if err := deps.Keymap.LoadFile(cfg.KeymapPath); err != nil {
			logger.Warn("快捷键配置无效，使用默认值", logger.ErrorField(err))
		}
		if err := deps.Keymap.Watch(ctx, cfg.KeymapPath); err != nil {
			logger.Warn("无法监听快捷键配置", logger.ErrorField(err))
		}
	}

	app.Handler = NewAPIHandler(deps)
	logger.Info("服务组件初始化完成",
		logger.Int("strategies", len(strategies)),
		logger.Bool("database", cfg.DatabaseEnabled()),
		logger.Bool("redis", cfg.RedisEnabled()))
	return app, nil
}

// Close 释放外部连接，按打开的逆序关闭
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("关闭连接失败", logger.ErrorField(err))
		}
	}
	a.closers = nil
}
