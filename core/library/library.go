// Package library manages a user's liked songs and playlists on top of a
// pluggable store.
package library

import (
	"context"
	"errors"
	"time"

	"MusicSphere/model"
)

var (
	ErrInvalidInput = errors.New("library: invalid input")
	ErrNotFound     = errors.New("library: not found")
	ErrDuplicate    = errors.New("library: song already in playlist")
)

// LikedStore persists liked songs. AddLike must treat an existing
// (user, track) row as success.
type LikedStore interface {
	AddLike(ctx context.Context, song *model.LikedSong) error
	DeleteLike(ctx context.Context, userID int64, trackID string) (bool, error)
	IsLiked(ctx context.Context, userID int64, trackID string) (bool, error)
	// ListLikes 按收藏时间倒序
	ListLikes(ctx context.Context, userID int64) ([]model.LikedSong, error)
}

// PlaylistStore persists playlists and their membership rows.
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, p *model.Playlist) error
	// GetPlaylist 不存在时返回 nil, nil
	GetPlaylist(ctx context.Context, id string) (*model.Playlist, error)
	// ListPlaylists 按创建时间倒序
	ListPlaylists(ctx context.Context, userID int64) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, p *model.Playlist) error
	// DeletePlaylist 同时删除歌单内歌曲
	DeletePlaylist(ctx context.Context, id string) error

	AddSong(ctx context.Context, song *model.PlaylistSong) error
	RemoveSong(ctx context.Context, playlistID, trackID string) (bool, error)
	// ListSongs 按 position 升序
	ListSongs(ctx context.Context, playlistID string) ([]model.PlaylistSong, error)
	UpdateSongPosition(ctx context.Context, playlistID, trackID string, position int) error
	CountSongs(ctx context.Context, playlistIDs []string) (map[string]int, error)
}

// SongCache is an optional read-through cache of a playlist's tracks.
type SongCache interface {
	GetSongs(ctx context.Context, playlistID string) ([]model.Track, bool, error)
	SetSongs(ctx context.Context, playlistID string, tracks []model.Track) error
	Invalidate(ctx context.Context, playlistID string) error
}

// Service 收藏与歌单服务
type Service struct {
	likes     LikedStore
	playlists PlaylistStore
	cache     SongCache
	now       func() time.Time
}

// NewService cache 可为 nil
func NewService(likes LikedStore, playlists PlaylistStore, cache SongCache) *Service {
	return &Service{
		likes:     likes,
		playlists: playlists,
		cache:     cache,
		now:       time.Now,
	}
}
