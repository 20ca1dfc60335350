package library

import (
	"context"
	"fmt"
	"strings"

	"MusicSphere/logger"
	"MusicSphere/model"

	"github.com/samber/lo"
)

// Like 收藏歌曲，重复收藏不报错
func (s *Service) Like(ctx context.Context, userID int64, track model.Track) error {
	if strings.TrimSpace(track.ID) == "" {
		return ErrInvalidInput
	}
	row := model.NewLikedSong(userID, track)
	row.AddedAt = s.now()
	if err := s.likes.AddLike(ctx, row); err != nil {
		logger.Error("[Like] 收藏失败",
			logger.Int64("userId", userID),
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
		return fmt.Errorf("收藏失败: %w", err)
	}
	logger.Info("[Like] 收藏歌曲",
		logger.Int64("userId", userID),
		logger.String("trackId", track.ID))
	return nil
}

// Unlike 取消收藏，未收藏时也返回 nil
func (s *Service) Unlike(ctx context.Context, userID int64, trackID string) error {
	if _, err := s.likes.DeleteLike(ctx, userID, trackID); err != nil {
		logger.Error("[Unlike] 取消收藏失败",
			logger.Int64("userId", userID),
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		return fmt.Errorf("取消收藏失败: %w", err)
	}
	return nil
}

// ToggleLike flips the liked state and returns the new one.
func (s *Service) ToggleLike(ctx context.Context, userID int64, track model.Track) (bool, error) {
	liked, err := s.IsLiked(ctx, userID, track.ID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, s.Unlike(ctx, userID, track.ID)
	}
	if err := s.Like(ctx, userID, track); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) IsLiked(ctx context.Context, userID int64, trackID string) (bool, error) {
	if strings.TrimSpace(trackID) == "" {
		return false, nil
	}
	liked, err := s.likes.IsLiked(ctx, userID, trackID)
	if err != nil {
		return false, fmt.Errorf("查询收藏状态失败: %w", err)
	}
	return liked, nil
}

// LikedTracks 收藏列表，最新的在前
func (s *Service) LikedTracks(ctx context.Context, userID int64) ([]model.Track, error) {
	rows, err := s.likes.ListLikes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取收藏列表失败: %w", err)
	}
	return lo.Map(rows, func(r model.LikedSong, _ int) model.Track { return r.ToTrack() }), nil
}
