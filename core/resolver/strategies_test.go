package resolver

import (
	"context"
	"errors"
	"testing"

	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	objects map[string]bool
	err     error
}

func (f *fakeMirror) ObjectKey(t model.Track) string { return "mirror/" + t.ID + ".mp3" }

func (f *fakeMirror) Exists(_ context.Context, key string) (bool, error) {
	return f.objects[key], f.err
}

func (f *fakeMirror) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://minio.local/" + key + "?sig=1", nil
}

type fakeVideos struct {
	id        string
	searchErr error
	audio     string
	audioErr  error
	searches  int
}

func (f *fakeVideos) SearchVideoID(context.Context, string, string) (string, error) {
	f.searches++
	return f.id, f.searchErr
}

func (f *fakeVideos) ExtractAudio(context.Context, string) (string, error) {
	return f.audio, f.audioErr
}

func (f *fakeVideos) EmbedURL(id string) string { return "https://embed/" + id }

func TestMirrorStrategy(t *testing.T) {
	track := model.Track{ID: "t1"}

	src, err := MirrorStrategy{Store: &fakeMirror{objects: map[string]bool{"mirror/t1.mp3": true}}}.Find(context.Background(), track)
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, model.SourceProxyExtracted, src.Kind)
	assert.Contains(t, src.URL, "mirror/t1.mp3")

	src, err = MirrorStrategy{Store: &fakeMirror{}}.Find(context.Background(), track)
	assert.NoError(t, err)
	assert.Nil(t, src)

	_, err = MirrorStrategy{Store: &fakeMirror{err: errors.New("minio down")}}.Find(context.Background(), track)
	assert.Error(t, err)
}

func TestProxyStrategy(t *testing.T) {
	v := &fakeVideos{id: "vid", audio: "https://cdn/audio.mp3"}

	src, err := ProxyStrategy{Videos: v}.Find(context.Background(), model.Track{ID: "t1"})

	require.NoError(t, err)
	assert.Equal(t, &model.MediaSource{Kind: model.SourceProxyExtracted, URL: "https://cdn/audio.mp3", QualityHint: model.QualityMedium}, src)

	_, err = ProxyStrategy{Videos: &fakeVideos{id: "vid", audioErr: errors.New("all proxies failed")}}.Find(context.Background(), model.Track{})
	assert.Error(t, err)
}

func TestEmbedStrategy(t *testing.T) {
	src, err := EmbedStrategy{Videos: &fakeVideos{id: "abc"}}.Find(context.Background(), model.Track{ID: "t1"})

	require.NoError(t, err)
	assert.Equal(t, model.SourceEmbeddedVideo, src.Kind)
	assert.Equal(t, "https://embed/abc", src.URL)

	_, err = EmbedStrategy{Videos: &fakeVideos{searchErr: errors.New("not found")}}.Find(context.Background(), model.Track{})
	assert.Error(t, err)
}

func TestResolver_FallsBackThroughChain(t *testing.T) {
	videos := &fakeVideos{id: "abc", audioErr: errors.New("proxy failed")}
	r := New(
		MirrorStrategy{Store: &fakeMirror{}},
		ProxyStrategy{Videos: videos},
		EmbedStrategy{Videos: videos},
	)

	src := r.Resolve(context.Background(), model.Track{ID: "t1", Title: "x", Artist: "y"})

	require.NotNil(t, src)
	assert.Equal(t, model.SourceEmbeddedVideo, src.Kind)
	assert.Equal(t, 2, videos.searches)
}
