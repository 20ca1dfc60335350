package resolver

import (
	"context"
	"fmt"

	"MusicSphere/model"
)

// MirrorStore is the object-storage side of the mirror strategy.
type MirrorStore interface {
	ObjectKey(track model.Track) string
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// VideoLookup is the video platform side of the proxy and embed strategies.
type VideoLookup interface {
	SearchVideoID(ctx context.Context, title, artist string) (string, error)
	ExtractAudio(ctx context.Context, videoID string) (string, error)
	EmbedURL(videoID string) string
}

// MirrorStrategy 从对象存储中的镜像音频解析
type MirrorStrategy struct {
	Store MirrorStore
}

func (m MirrorStrategy) Name() string { return "mirror" }

func (m MirrorStrategy) Find(ctx context.Context, track model.Track) (*model.MediaSource, error) {
	key := m.Store.ObjectKey(track)
	ok, err := m.Store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("检查镜像失败: %w", err)
	}
	if !ok {
		return nil, nil
	}
	url, err := m.Store.PresignedURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("生成镜像地址失败: %w", err)
	}
	return &model.MediaSource{
		Kind:        model.SourceProxyExtracted,
		URL:         url,
		QualityHint: model.QualityHigh,
	}, nil
}

// ProxyStrategy 通过代理服务从视频中提取音频
type ProxyStrategy struct {
	Videos VideoLookup
}

func (p ProxyStrategy) Name() string { return "proxy" }

func (p ProxyStrategy) Find(ctx context.Context, track model.Track) (*model.MediaSource, error) {
	id, err := p.Videos.SearchVideoID(ctx, track.Title, track.Artist)
	if err != nil {
		return nil, fmt.Errorf("查找视频失败: %w", err)
	}
	url, err := p.Videos.ExtractAudio(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("提取音频失败: %w", err)
	}
	return &model.MediaSource{
		Kind:        model.SourceProxyExtracted,
		URL:         url,
		QualityHint: model.QualityMedium,
	}, nil
}

// EmbedStrategy falls back to the embeddable video player.
type EmbedStrategy struct {
	Videos VideoLookup
}

func (e EmbedStrategy) Name() string { return "embed" }

func (e EmbedStrategy) Find(ctx context.Context, track model.Track) (*model.MediaSource, error) {
	id, err := e.Videos.SearchVideoID(ctx, track.Title, track.Artist)
	if err != nil {
		return nil, fmt.Errorf("查找视频失败: %w", err)
	}
	return &model.MediaSource{
		Kind:        model.SourceEmbeddedVideo,
		URL:         e.Videos.EmbedURL(id),
		QualityHint: model.QualityMedium,
	}, nil
}
