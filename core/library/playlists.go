package library

import (
	"context"
	"fmt"
	"strings"

	"MusicSphere/logger"
	"MusicSphere/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CreatePlaylist 创建歌单，名称不能为空
func (s *Service) CreatePlaylist(ctx context.Context, userID int64, name, description string, isPublic bool) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()
	p := &model.Playlist{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsPublic:    isPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.CreatePlaylist(ctx, p); err != nil {
		logger.Error("[CreatePlaylist] 创建歌单失败",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		return nil, fmt.Errorf("创建歌单失败: %w", err)
	}
	logger.Info("[CreatePlaylist] 创建歌单",
		logger.Int64("userId", userID),
		logger.String("playlistId", p.ID))
	return p, nil
}

// Playlists 用户的歌单，最新的在前，带歌曲数量
func (s *Service) Playlists(ctx context.Context, userID int64) ([]model.Playlist, error) {
	list, err := s.playlists.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取歌单列表失败: %w", err)
	}
	if len(list) == 0 {
		return []model.Playlist{}, nil
	}
	counts, err := s.playlists.CountSongs(ctx, lo.Map(list, func(p model.Playlist, _ int) string { return p.ID }))
	if err != nil {
		return nil, fmt.Errorf("统计歌曲数量失败: %w", err)
	}
	for i := range list {
		list[i].SongCount = counts[list[i].ID]
	}
	return list, nil
}

// Playlist returns a playlist the user owns, or any public one.
func (s *Service) Playlist(ctx context.Context, userID int64, id string) (*model.Playlist, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !p.IsPublic {
		return nil, ErrNotFound
	}
	counts, err := s.playlists.CountSongs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("统计歌曲数量失败: %w", err)
	}
	p.SongCount = counts[id]
	return p, nil
}

// UpdatePlaylist applies the non-nil fields of upd.
func (s *Service) UpdatePlaylist(ctx context.Context, userID int64, id string, upd model.PlaylistUpdate) (*model.Playlist, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		p.Name = name
	}
	if upd.Description != nil {
		p.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}
	p.UpdatedAt = s.now()
	if err := s.playlists.UpdatePlaylist(ctx, p); err != nil {
		return nil, fmt.Errorf("更新歌单失败: %w", err)
	}
	return p, nil
}

func (s *Service) DeletePlaylist(ctx context.Context, userID int64, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.playlists.DeletePlaylist(ctx, id); err != nil {
		return fmt.Errorf("删除歌单失败: %w", err)
	}
	s.invalidate(ctx, id)
	logger.Info("[DeletePlaylist] 删除歌单",
		logger.Int64("userId", userID),
		logger.String("playlistId", id))
	return nil
}

// AddSong appends track at position = current song count.
func (s *Service) AddSong(ctx context.Context, userID int64, playlistID string, track model.Track) error {
	if strings.TrimSpace(track.ID) == "" {
		return ErrInvalidInput
	}
	p, err := s.owned(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	songs, err := s.playlists.ListSongs(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("获取歌单歌曲失败: %w", err)
	}
	if lo.ContainsBy(songs, func(ps model.PlaylistSong) bool { return ps.SpotifyTrackID == track.ID }) {
		return ErrDuplicate
	}

	row := model.NewPlaylistSong(playlistID, track, len(songs))
	row.AddedAt = s.now()
	if err := s.playlists.AddSong(ctx, row); err != nil {
		return fmt.Errorf("添加歌曲失败: %w", err)
	}
	if p.CoverImage == "" && track.CoverImageURL != "" && track.CoverImageURL != model.PlaceholderCover {
		p.CoverImage = track.CoverImageURL
	}
	p.UpdatedAt = s.now()
	if err := s.playlists.UpdatePlaylist(ctx, p); err != nil {
		logger.Warn("[AddSong] 更新歌单时间失败", logger.ErrorField(err))
	}
	s.invalidate(ctx, playlistID)
	return nil
}

// RemoveSong removes track from the playlist and renumbers the remaining
// songs to 0..n-1.
func (s *Service) RemoveSong(ctx context.Context, userID int64, playlistID, trackID string) error {
	p, err := s.owned(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	removed, err := s.playlists.RemoveSong(ctx, playlistID, trackID)
	if err != nil {
		return fmt.Errorf("移除歌曲失败: %w", err)
	}
	if !removed {
		return ErrNotFound
	}
	defer s.invalidate(ctx, playlistID)

	songs, err := s.playlists.ListSongs(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("获取歌单歌曲失败: %w", err)
	}
	for i, song := range songs {
		if song.Position == i {
			continue
		}
		if err := s.playlists.UpdateSongPosition(ctx, playlistID, song.SpotifyTrackID, i); err != nil {
			return fmt.Errorf("重排歌曲位置失败: %w", err)
		}
	}
	p.UpdatedAt = s.now()
	if err := s.playlists.UpdatePlaylist(ctx, p); err != nil {
		logger.Warn("[RemoveSong] 更新歌单时间失败", logger.ErrorField(err))
	}
	return nil
}

// Songs 歌单歌曲，按位置升序；优先读缓存
func (s *Service) Songs(ctx context.Context, userID int64, playlistID string) ([]model.Track, error) {
	p, err := s.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !p.IsPublic {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		tracks, ok, err := s.cache.GetSongs(ctx, playlistID)
		if err != nil {
			logger.Warn("[Songs] 读取缓存失败", logger.String("playlistId", playlistID), logger.ErrorField(err))
		} else if ok {
			return tracks, nil
		}
	}

	rows, err := s.playlists.ListSongs(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("获取歌单歌曲失败: %w", err)
	}
	tracks := lo.Map(rows, func(r model.PlaylistSong, _ int) model.Track { return r.ToTrack() })

	if s.cache != nil {
		if err := s.cache.SetSongs(ctx, playlistID, tracks); err != nil {
			logger.Warn("[Songs] 写入缓存失败", logger.String("playlistId", playlistID), logger.ErrorField(err))
		}
	}
	return tracks, nil
}

// SongCount 歌单歌曲数量
func (s *Service) SongCount(ctx context.Context, userID int64, playlistID string) (int, error) {
	p, err := s.Playlist(ctx, userID, playlistID)
	if err != nil {
		return 0, err
	}
	return p.SongCount, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Playlist, error) {
	p, err := s.playlists.GetPlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取歌单失败: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) owned(ctx context.Context, userID int64, id string) (*model.Playlist, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, playlistID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, playlistID); err != nil {
		logger.Warn("[invalidate] 清除歌单缓存失败",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
	}
}
