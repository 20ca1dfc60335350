package repository

import (
	"context"
	"errors"

	"MusicSphere/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// LikedSongRepository 收藏歌曲数据访问
type LikedSongRepository struct {
	db *gorm.DB
}

// NewLikedSongRepository 创建 GORM 收藏仓库
func NewLikedSongRepository(db *gorm.DB) *LikedSongRepository {
	return &LikedSongRepository{db: db}
}

// AddLike 重复收藏视为成功
func (r *LikedSongRepository) AddLike(ctx context.Context, song *model.LikedSong) error {
	err := r.db.WithContext(ctx).Create(song).Error
	if err != nil && isDuplicateKey(err) {
		return nil
	}
	return err
}

// DeleteLike 返回是否真的删除了记录
func (r *LikedSongRepository) DeleteLike(ctx context.Context, userID int64, trackID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND spotify_track_id = ?", userID, trackID).
		Delete(&model.LikedSong{})
	return res.RowsAffected > 0, res.Error
}

func (r *LikedSongRepository) IsLiked(ctx context.Context, userID int64, trackID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LikedSong{}).
		Where("user_id = ? AND spotify_track_id = ?", userID, trackID).
		Count(&count).Error
	return count > 0, err
}

// ListLikes 按收藏时间倒序
func (r *LikedSongRepository) ListLikes(ctx context.Context, userID int64) ([]model.LikedSong, error) {
	var songs []model.LikedSong
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Order("id DESC").
		Find(&songs).Error
	return songs, err
}
