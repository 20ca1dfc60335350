// Package cache holds the Redis-backed caches: YouTube video ids and
// playlist songs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultVideoIDTTL 视频ID缓存时间
const DefaultVideoIDTTL = 7 * 24 * time.Hour

// VideoIDKey 根据查询哈希生成Redis键
func VideoIDKey(hash string) string {
	return fmt.Sprintf("yt:video:%s", hash)
}

// VideoIDCache stores YouTube search results as plain string keys.
type VideoIDCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVideoIDCache(client *redis.Client, ttl time.Duration) *VideoIDCache {
	if ttl <= 0 {
		ttl = DefaultVideoIDTTL
	}
	return &VideoIDCache{client: client, ttl: ttl}
}

// GetVideoID 未命中时返回 ok=false 且 err=nil
func (c *VideoIDCache) GetVideoID(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, VideoIDKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get video id: %w", err)
	}
	return val, true, nil
}

func (c *VideoIDCache) SetVideoID(ctx context.Context, key, videoID string) error {
	if err := c.client.Set(ctx, VideoIDKey(key), videoID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set video id: %w", err)
	}
	return nil
}
