// Package youtube looks tracks up on YouTube and turns a video into something
// a player can use: an embed URL, or an audio URL pulled out by one of the
// extraction proxies.
package youtube

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MusicSphere/logger"
)

const (
	defaultAPIBase = "https://www.googleapis.com/youtube/v3"
	musicCategory  = "10"
)

var (
	// ErrNotFound 没有匹配的视频
	ErrNotFound = errors.New("youtube: no matching video")
	// ErrNotConfigured 未配置 API Key
	ErrNotConfigured = errors.New("youtube: api key not configured")
)

// VideoIDCache stores search results so repeated lookups skip the API.
type VideoIDCache interface {
	GetVideoID(ctx context.Context, key string) (string, bool, error)
	SetVideoID(ctx context.Context, key, videoID string) error
}

// Client YouTube 数据 API 客户端
type Client struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
	cache      VideoIDCache
	proxies    []Proxy
}

// NewClient 创建客户端，cache 可为 nil
func NewClient(apiKey string, cache VideoIDCache, proxies ...Proxy) *Client {
	return &Client{
		apiKey:  apiKey,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		cache:   cache,
		proxies: proxies,
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(u string) {
	c.apiBase = strings.TrimRight(u, "/")
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SearchVideoID returns the best matching music video for title and artist.
func (c *Client) SearchVideoID(ctx context.Context, title, artist string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	query := strings.TrimSpace(fmt.Sprintf("%s %s official audio", title, artist))
	key := cacheKey(title, artist)

	if c.cache != nil {
		id, ok, err := c.cache.GetVideoID(ctx, key)
		if err != nil {
			logger.Warn("[SearchVideoID] 读取缓存失败", logger.ErrorField(err))
		} else if ok {
			logger.Debug("[SearchVideoID] 命中缓存", logger.String("videoId", id))
			return id, nil
		}
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoCategoryId", musicCategory)
	params.Set("maxResults", "1")
	params.Set("key", c.apiKey)
	reqURL := c.apiBase + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	logger.Debug("[SearchVideoID] 发送请求到YouTube API", logger.String("query", query))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("[SearchVideoID] 请求失败", logger.String("query", query), logger.ErrorField(err))
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("[SearchVideoID] 服务器返回错误状态码", logger.Int("status", resp.StatusCode))
		return "", fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if len(result.Items) == 0 || result.Items[0].ID.VideoID == "" {
		return "", ErrNotFound
	}

	id := result.Items[0].ID.VideoID
	if c.cache != nil {
		if err := c.cache.SetVideoID(ctx, key, id); err != nil {
			logger.Warn("[SearchVideoID] 写入缓存失败", logger.ErrorField(err))
		}
	}
	logger.Info("[SearchVideoID] 找到视频",
		logger.String("query", query),
		logger.String("videoId", id))
	return id, nil
}

// EmbedURL 嵌入式播放器地址
func (c *Client) EmbedURL(videoID string) string {
	return EmbedURL(videoID)
}

// EmbedURL builds the iframe player URL for a video.
func EmbedURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?enablejsapi=1&autoplay=1&controls=1&showinfo=1&rel=0&modestbranding=1", url.PathEscape(videoID))
}

// WatchURL 视频页面地址
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

func cacheKey(title, artist string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(artist))))
	return hex.EncodeToString(sum[:])
}
