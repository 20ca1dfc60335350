// Package catalog searches the Spotify Web API and converts results into
// tracks.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"MusicSphere/logger"
	"MusicSphere/model"

	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SearchLimit 单次搜索返回的最大条数
const SearchLimit = 20

// ErrNotConfigured is returned when no client credentials were provided.
var ErrNotConfigured = errors.New("catalog: spotify credentials not configured")

// Client Spotify 曲库客户端
type Client struct {
	api *spotify.Client
}

// NewClient builds a client authenticated with the client-credentials flow.
// Tokens are fetched lazily and refreshed by oauth2.
func NewClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &Client{api: spotify.New(cc.Client(ctx))}, nil
}

// NewClientWithHTTP wraps an already authenticated http client. baseURL may
// be empty for the public API.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	var opts []spotify.ClientOption
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	return &Client{api: spotify.New(httpClient, opts...)}
}

// Search 按关键字搜索歌曲；空查询直接返回空列表，不发请求
func (c *Client) Search(ctx context.Context, query string) ([]model.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Track{}, nil
	}

	logger.Debug("[Search] 开始搜索", logger.String("query", query))
	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(SearchLimit))
	if err != nil {
		logger.Warn("[Search] 搜索失败", logger.String("query", query), logger.ErrorField(err))
		return nil, fmt.Errorf("搜索失败: %w", err)
	}
	if results.Tracks == nil {
		return []model.Track{}, nil
	}

	tracks := lo.Map(results.Tracks.Tracks, func(t spotify.FullTrack, _ int) model.Track {
		return convertTrack(&t)
	})
	logger.Info("[Search] 搜索完成",
		logger.String("query", query),
		logger.Int("count", len(tracks)))
	return tracks, nil
}

// GetTrack 根据 ID 获取单首歌曲
func (c *Client) GetTrack(ctx context.Context, id string) (model.Track, error) {
	t, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return model.Track{}, fmt.Errorf("获取歌曲失败: %w", err)
	}
	return convertTrack(t), nil
}

func convertTrack(t *spotify.FullTrack) model.Track {
	artists := lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return a.Name })

	cover := ""
	if len(t.Album.Images) > 0 {
		cover = t.Album.Images[0].URL
	}

	return model.Track{
		ID:              string(t.ID),
		Title:           t.Name,
		Artist:          strings.Join(artists, ", "),
		Album:           t.Album.Name,
		DurationLabel:   model.FormatDuration(int(t.Duration)),
		CoverImageURL:   model.CoverOrPlaceholder(cover),
		PreviewAudioURL: t.PreviewURL,
	}
}
