package repository

import (
	"context"
	"errors"

	"MusicSphere/model"

	"gorm.io/gorm"
)

// PlaylistRepository 歌单数据访问
type PlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository 创建 GORM 歌单仓库
func NewPlaylistRepository(db *gorm.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// ========== 歌单 CRUD ==========

func (r *PlaylistRepository) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetPlaylist 不存在时返回 nil, nil
func (r *PlaylistRepository) GetPlaylist(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListPlaylists 按创建时间倒序
func (r *PlaylistRepository) ListPlaylists(ctx context.Context, userID int64) ([]model.Playlist, error) {
	var list []model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *PlaylistRepository) UpdatePlaylist(ctx context.Context, p *model.Playlist) error {
	return r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"cover_image": p.CoverImage,
			"is_public":   p.IsPublic,
			"updated_at":  p.UpdatedAt,
		}).Error
}

// DeletePlaylist 在同一事务里删除歌单和歌曲
func (r *PlaylistRepository) DeletePlaylist(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistSong{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Playlist{}).Error
	})
}

// ========== 歌单歌曲 ==========

func (r *PlaylistRepository) AddSong(ctx context.Context, song *model.PlaylistSong) error {
	return r.db.WithContext(ctx).Create(song).Error
}

func (r *PlaylistRepository) RemoveSong(ctx context.Context, playlistID, trackID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND spotify_track_id = ?", playlistID, trackID).
		Delete(&model.PlaylistSong{})
	return res.RowsAffected > 0, res.Error
}

// ListSongs 按 position 升序
func (r *PlaylistRepository) ListSongs(ctx context.Context, playlistID string) ([]model.PlaylistSong, error) {
	var songs []model.PlaylistSong
	err := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&songs).Error
	return songs, err
}

func (r *PlaylistRepository) UpdateSongPosition(ctx context.Context, playlistID, trackID string, position int) error {
	return r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ? AND spotify_track_id = ?", playlistID, trackID).
		Update("position", position).Error
}

// CountSongs 批量统计歌曲数量，没有歌曲的歌单不出现在结果中
func (r *PlaylistRepository) CountSongs(ctx context.Context, playlistIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(playlistIDs))
	if len(playlistIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PlaylistID string
		Total      int
	}
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Select("playlist_id, COUNT(*) AS total").
		Where("playlist_id IN ?", playlistIDs).
		Group("playlist_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PlaylistID] = row.Total
	}
	return out, nil
}
