// Package resolver turns a track into something playable.
//
// A track that already carries a preview URL resolves immediately. Otherwise a
// fixed list of fallback strategies is tried in order and the first success is
// cached for the life of the process.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"MusicSphere/logger"
	"MusicSphere/model"
)

// Strategy is one fallback lookup. Failures are returned, never panicked; a
// nil source with a nil error means "nothing found".
type Strategy interface {
	Name() string
	Find(ctx context.Context, track model.Track) (*model.MediaSource, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, track model.Track) (*model.MediaSource, error)
}

func (s StrategyFunc) Name() string { return s.Label }

func (s StrategyFunc) Find(ctx context.Context, track model.Track) (*model.MediaSource, error) {
	return s.Fn(ctx, track)
}

// Resolver 播放源解析器，缓存按歌曲 ID 存放，进程内有效
type Resolver struct {
	strategies []Strategy

	mu       sync.Mutex
	cache    map[string]*model.MediaSource
	inflight map[string]struct{}
}

// New creates a resolver that tries strategies in the given order.
func New(strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		cache:      make(map[string]*model.MediaSource),
		inflight:   make(map[string]struct{}),
	}
}

// Resolve returns a playable source, or nil when none could be found.
//
// A second call for a track whose lookup is still running returns nil right
// away instead of waiting for the first one.
func (r *Resolver) Resolve(ctx context.Context, track model.Track) *model.MediaSource {
	if track.HasPreview() {
		src := &model.MediaSource{
			Kind:        model.SourceDirectPreview,
			URL:         track.PreviewAudioURL,
			QualityHint: model.QualityHigh,
		}
		r.mu.Lock()
		r.cache[track.ID] = src
		r.mu.Unlock()
		return src
	}

	r.mu.Lock()
	if src, ok := r.cache[track.ID]; ok {
		r.mu.Unlock()
		return src
	}
	if _, busy := r.inflight[track.ID]; busy {
		r.mu.Unlock()
		logger.Debug("[Resolve] 已有解析任务进行中，直接返回",
			logger.String("trackId", track.ID))
		return nil
	}
	r.inflight[track.ID] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, track.ID)
		r.mu.Unlock()
	}()

	src := r.runStrategies(ctx, track)
	if src == nil {
		logger.Warn("[Resolve] 未找到可播放的音源",
			logger.String("trackId", track.ID),
			logger.String("title", track.Title),
			logger.String("artist", track.Artist))
		return nil
	}

	r.mu.Lock()
	r.cache[track.ID] = src
	r.mu.Unlock()

	logger.Info("[Resolve] 音源解析成功",
		logger.String("trackId", track.ID),
		logger.String("kind", string(src.Kind)),
		logger.String("quality", src.QualityHint))
	return src
}

func (r *Resolver) runStrategies(ctx context.Context, track model.Track) *model.MediaSource {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return nil
		}
		src, err := r.try(ctx, s, track)
		if err != nil {
			logger.Warn("[Resolve] 解析策略失败，尝试下一个",
				logger.String("strategy", s.Name()),
				logger.String("trackId", track.ID),
				logger.ErrorField(err))
			continue
		}
		if src != nil && src.URL != "" {
			return src
		}
	}
	return nil
}

// try isolates a strategy so a panic in one does not take the others down.
func (r *Resolver) try(ctx context.Context, s Strategy, track model.Track) (src *model.MediaSource, err error) {
	defer func() {
		if p := recover(); p != nil {
			src, err = nil, fmt.Errorf("解析策略异常: %v", p)
		}
	}()
	return s.Find(ctx, track)
}

// IsLoading 该歌曲是否正在解析
func (r *Resolver) IsLoading(track model.Track) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[track.ID]
	return ok
}

// Cached returns the cached source for a track id, if any.
func (r *Resolver) Cached(trackID string) (*model.MediaSource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.cache[trackID]
	return src, ok
}

// ClearCache 清空缓存，进行中的解析不受影响
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*model.MediaSource)
}

// CacheSize 缓存条目数
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
