package model

import (
	"fmt"
	"strings"
	"time"
)

// PlaceholderCover 没有封面时使用的默认图片
const PlaceholderCover = "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=300&h=300&fit=crop"

// Track 统一的歌曲描述，创建后不再修改
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	DurationLabel   string `json:"duration"` // m:ss
	CoverImageURL   string `json:"coverImage"`
	PreviewAudioURL string `json:"previewUrl,omitempty"` // 存在即可直接播放
}

// Same reports whether both records describe the same catalog track.
// Only the id is compared.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// HasPreview 是否带有可直接播放的试听地址
func (t Track) HasPreview() bool {
	return strings.TrimSpace(t.PreviewAudioURL) != ""
}

// FormatDuration 将毫秒时长格式化为 m:ss
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// CoverOrPlaceholder 封面为空时返回占位图
func CoverOrPlaceholder(url string) string {
	if strings.TrimSpace(url) == "" {
		return PlaceholderCover
	}
	return url
}

// QueueEntry 播放队列中的一项
type QueueEntry struct {
	Track   Track     `json:"track"`
	AddedAt time.Time `json:"addedAt"` // 仅用于展示
}
