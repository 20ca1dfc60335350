package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MusicSphere/model"

	"github.com/go-redis/redis/v8"
)

// DefaultPlaylistTTL 歌单缓存过期时间
const DefaultPlaylistTTL = 24 * time.Hour

// playlistItem 有序集合中的成员，分数为位置
type playlistItem struct {
	Position int         `json:"position"`
	Track    model.Track `json:"track"`
}

// GetPlaylistKey 根据歌单ID生成Redis键
func GetPlaylistKey(playlistID string) string {
	return fmt.Sprintf("playlist:%s:songs", playlistID)
}

// PlaylistSongCache keeps a playlist's tracks in a sorted set scored by
// position.
type PlaylistSongCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPlaylistSongCache(client *redis.Client, ttl time.Duration) *PlaylistSongCache {
	if ttl <= 0 {
		ttl = DefaultPlaylistTTL
	}
	return &PlaylistSongCache{client: client, ttl: ttl}
}

// GetSongs 按位置升序返回；键不存在时 ok=false
func (c *PlaylistSongCache) GetSongs(ctx context.Context, playlistID string) ([]model.Track, bool, error) {
	key := GetPlaylistKey(playlistID)
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check playlist cache: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}

	members, err := c.client.ZRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get playlist: %w", err)
	}
	tracks, err := decodeMembers(members)
	if err != nil {
		return nil, false, err
	}
	return tracks, true, nil
}

// SetSongs replaces the cached set. An empty playlist leaves no key behind,
// so it never produces a hit.
func (c *PlaylistSongCache) SetSongs(ctx context.Context, playlistID string, tracks []model.Track) error {
	key := GetPlaylistKey(playlistID)
	members, err := encodeMembers(tracks)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache playlist: %w", err)
	}
	return nil
}

func (c *PlaylistSongCache) Invalidate(ctx context.Context, playlistID string) error {
	if err := c.client.Del(ctx, GetPlaylistKey(playlistID)).Err(); err != nil {
		return fmt.Errorf("failed to clear playlist cache: %w", err)
	}
	return nil
}

func encodeMembers(tracks []model.Track) ([]*redis.Z, error) {
	out := make([]*redis.Z, 0, len(tracks))
	for i, t := range tracks {
		itemJSON, err := json.Marshal(playlistItem{Position: i, Track: t})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal playlist item: %w", err)
		}
		out = append(out, &redis.Z{Score: float64(i), Member: itemJSON})
	}
	return out, nil
}

func decodeMembers(members []string) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(members))
	for _, m := range members {
		var item playlistItem
		if err := json.Unmarshal([]byte(m), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist item: %w", err)
		}
		tracks = append(tracks, item.Track)
	}
	return tracks, nil
}
