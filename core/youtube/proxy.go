package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"MusicSphere/logger"
)

// ErrNoAudio is returned when every extraction proxy failed.
var ErrNoAudio = errors.New("youtube: no proxy could extract audio")

// Proxy extracts a direct audio URL for a video. Implementations must not
// verify the URL themselves; the client does that.
type Proxy interface {
	Name() string
	Extract(ctx context.Context, httpClient *http.Client, videoID string) (string, error)
}

// ExtractAudio tries each proxy in order and returns the first URL that
// answers a HEAD request with 2xx.
func (c *Client) ExtractAudio(ctx context.Context, videoID string) (string, error) {
	if len(c.proxies) == 0 {
		return "", ErrNoAudio
	}
	for _, p := range c.proxies {
		audioURL, err := p.Extract(ctx, c.httpClient, videoID)
		if err != nil {
			logger.Warn("[ExtractAudio] 代理提取失败",
				logger.String("proxy", p.Name()),
				logger.String("videoId", videoID),
				logger.ErrorField(err))
			continue
		}
		if audioURL == "" {
			continue
		}
		if err := c.verify(ctx, audioURL); err != nil {
			logger.Warn("[ExtractAudio] 音频地址不可用",
				logger.String("proxy", p.Name()),
				logger.ErrorField(err))
			continue
		}
		logger.Info("[ExtractAudio] 提取成功",
			logger.String("proxy", p.Name()),
			logger.String("videoId", videoID))
		return audioURL, nil
	}
	return "", ErrNoAudio
}

func (c *Client) verify(ctx context.Context, audioURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, audioURL, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("状态码: %d", resp.StatusCode)
	}
	return nil
}

// CobaltProxy POSTs the watch URL to a cobalt instance.
type CobaltProxy struct {
	Endpoint string
}

func (p CobaltProxy) Name() string { return "cobalt" }

func (p CobaltProxy) Extract(ctx context.Context, hc *http.Client, videoID string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"url":         WatchURL(videoID),
		"vQuality":    "lowest",
		"aFormat":     "mp3",
		"isAudioOnly": true,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var result struct {
		URL string `json:"url"`
	}
	if err := doJSON(hc, req, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// YtDlpProxy queries a yt-dlp web wrapper and picks the first format with an
// audio codec.
type YtDlpProxy struct {
	Endpoint string
}

func (p YtDlpProxy) Name() string { return "yt-dlp" }

func (p YtDlpProxy) Extract(ctx context.Context, hc *http.Client, videoID string) (string, error) {
	reqURL := p.Endpoint + "?url=" + url.QueryEscape(WatchURL(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	var result struct {
		Formats []struct {
			URL    string `json:"url"`
			ACodec string `json:"acodec"`
		} `json:"formats"`
	}
	if err := doJSON(hc, req, &result); err != nil {
		return "", err
	}
	for _, f := range result.Formats {
		if f.ACodec != "" && f.ACodec != "none" && f.URL != "" {
			return f.URL, nil
		}
	}
	return "", nil
}

// GenericProxy calls an endpoint taking ?videoId= and answering with
// audioUrl or url.
type GenericProxy struct {
	Endpoint string
}

func (p GenericProxy) Name() string { return "generic" }

func (p GenericProxy) Extract(ctx context.Context, hc *http.Client, videoID string) (string, error) {
	reqURL := p.Endpoint + "?videoId=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	var result struct {
		AudioURL string `json:"audioUrl"`
		URL      string `json:"url"`
	}
	if err := doJSON(hc, req, &result); err != nil {
		return "", err
	}
	if result.AudioURL != "" {
		return result.AudioURL, nil
	}
	return result.URL, nil
}

// ProxiesFromConfig builds the proxy chain in the fixed order cobalt, yt-dlp,
// generic, skipping blank endpoints.
func ProxiesFromConfig(cobalt, ytdlp, generic string) []Proxy {
	var out []Proxy
	if cobalt != "" {
		out = append(out, CobaltProxy{Endpoint: cobalt})
	}
	if ytdlp != "" {
		out = append(out, YtDlpProxy{Endpoint: ytdlp})
	}
	if generic != "" {
		out = append(out, GenericProxy{Endpoint: generic})
	}
	return out
}

func doJSON(hc *http.Client, req *http.Request, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("代理返回错误状态码: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
