package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct {
	name  string
	calls atomic.Int32
	src   *model.MediaSource
	err   error
	gate  chan struct{} // 非 nil 时阻塞直到关闭
	enter chan struct{}
}

func (c *countingStrategy) Name() string { return c.name }

func (c *countingStrategy) Find(ctx context.Context, _ model.Track) (*model.MediaSource, error) {
	c.calls.Add(1)
	if c.enter != nil {
		c.enter <- struct{}{}
	}
	if c.gate != nil {
		<-c.gate
	}
	return c.src, c.err
}

func noPreview(id string) model.Track {
	return model.Track{ID: id, Title: "Song " + id, Artist: "Band"}
}

func TestResolve_DirectPreviewSkipsStrategies(t *testing.T) {
	fallback := &countingStrategy{name: "fallback"}
	r := New(fallback)

	src := r.Resolve(context.Background(), model.Track{ID: "t1", PreviewAudioURL: "http://a"})

	require.NotNil(t, src)
	assert.Equal(t, model.SourceDirectPreview, src.Kind)
	assert.Equal(t, "http://a", src.URL)
	assert.Equal(t, model.QualityHigh, src.QualityHint)
	assert.Equal(t, int32(0), fallback.calls.Load())
	assert.Equal(t, 1, r.CacheSize())
}

func TestResolve_FirstSuccessWinsAndIsCached(t *testing.T) {
	failing := &countingStrategy{name: "a", err: errors.New("boom")}
	empty := &countingStrategy{name: "b"}
	ok := &countingStrategy{name: "c", src: &model.MediaSource{Kind: model.SourceEmbeddedVideo, URL: "http://embed"}}
	never := &countingStrategy{name: "d", src: &model.MediaSource{Kind: model.SourceProxyExtracted, URL: "http://x"}}
	r := New(failing, empty, ok, never)

	src := r.Resolve(context.Background(), noPreview("t1"))

	require.NotNil(t, src)
	assert.Equal(t, "http://embed", src.URL)
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), empty.calls.Load())
	assert.Equal(t, int32(0), never.calls.Load())

	again := r.Resolve(context.Background(), noPreview("t1"))
	assert.Same(t, src, again)
	assert.Equal(t, int32(1), ok.calls.Load(), "cached result should not hit strategies")
}

func TestResolve_AllFailReturnsNilAndDoesNotCache(t *testing.T) {
	s := &countingStrategy{name: "a", err: errors.New("network down")}
	r := New(s)

	assert.Nil(t, r.Resolve(context.Background(), noPreview("t1")))
	assert.Equal(t, 0, r.CacheSize())
	assert.False(t, r.IsLoading(noPreview("t1")))

	r.Resolve(context.Background(), noPreview("t1"))
	assert.Equal(t, int32(2), s.calls.Load())
}

func TestResolve_PanickingStrategyDoesNotAbortOthers(t *testing.T) {
	bad := StrategyFunc{Label: "bad", Fn: func(context.Context, model.Track) (*model.MediaSource, error) {
		panic("unexpected")
	}}
	good := &countingStrategy{name: "good", src: &model.MediaSource{Kind: model.SourceProxyExtracted, URL: "http://ok"}}
	r := New(bad, good)

	src := r.Resolve(context.Background(), noPreview("t1"))

	require.NotNil(t, src)
	assert.Equal(t, "http://ok", src.URL)
}

// The second concurrent caller fails fast instead of joining the lookup.
func TestResolve_ConcurrentCallerFailsFast(t *testing.T) {
	s := &countingStrategy{
		name:  "slow",
		src:   &model.MediaSource{Kind: model.SourceEmbeddedVideo, URL: "http://embed"},
		gate:  make(chan struct{}),
		enter: make(chan struct{}, 1),
	}
	r := New(s)
	track := noPreview("t1")

	var first *model.MediaSource
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = r.Resolve(context.Background(), track)
	}()

	select {
	case <-s.enter:
	case <-time.After(time.Second):
		t.Fatal("strategy was never called")
	}
	assert.True(t, r.IsLoading(track))

	second := r.Resolve(context.Background(), track)
	assert.Nil(t, second)
	assert.Equal(t, int32(1), s.calls.Load())

	close(s.gate)
	wg.Wait()

	require.NotNil(t, first)
	assert.False(t, r.IsLoading(track))
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestResolve_DifferentTracksDoNotBlockEachOther(t *testing.T) {
	s := &countingStrategy{name: "ok", src: &model.MediaSource{Kind: model.SourceEmbeddedVideo, URL: "http://embed"}}
	r := New(s)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Resolve(context.Background(), noPreview(id))
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, r.CacheSize())
}

func TestResolve_CancelledContextStopsStrategies(t *testing.T) {
	s := &countingStrategy{name: "a", src: &model.MediaSource{URL: "http://x"}}
	r := New(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, r.Resolve(ctx, noPreview("t1")))
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestClearCache(t *testing.T) {
	r := New()
	r.Resolve(context.Background(), model.Track{ID: "a", PreviewAudioURL: "http://a"})
	r.Resolve(context.Background(), model.Track{ID: "b", PreviewAudioURL: "http://b"})
	require.Equal(t, 2, r.CacheSize())

	r.ClearCache()

	assert.Equal(t, 0, r.CacheSize())
	_, ok := r.Cached("a")
	assert.False(t, ok)
}
