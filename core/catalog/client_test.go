package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
  "tracks": {
    "href": "", "limit": 20, "offset": 0, "total": 2,
    "items": [
      {
        "id": "t1",
        "name": "Midnight City",
        "duration_ms": 243960,
        "preview_url": "https://p.scdn.co/mp3-preview/abc",
        "artists": [{"name": "M83"}, {"name": "Guest"}],
        "album": {"name": "Hurry Up, We're Dreaming", "images": [{"url": "https://i.scdn.co/image/1", "height": 640, "width": 640}]}
      },
      {
        "id": "t2",
        "name": "Outro",
        "duration_ms": 247000,
        "preview_url": null,
        "artists": [{"name": "M83"}],
        "album": {"name": "Hurry Up, We're Dreaming", "images": []}
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.Client(), srv.URL), &hits
}

func TestSearch(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "m83", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	})

	tracks, err := c.Search(context.Background(), "  m83 ")

	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, model.Track{
		ID:              "t1",
		Title:           "Midnight City",
		Artist:          "M83, Guest",
		Album:           "Hurry Up, We're Dreaming",
		DurationLabel:   "4:03",
		CoverImageURL:   "https://i.scdn.co/image/1",
		PreviewAudioURL: "https://p.scdn.co/mp3-preview/abc",
	}, tracks[0])
	assert.Equal(t, model.PlaceholderCover, tracks[1].CoverImageURL)
	assert.False(t, tracks[1].HasPreview())
}

func TestSearch_BlankQueryMakesNoCall(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	for _, q := range []string{"", "   ", "\t\n"} {
		tracks, err := c.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, tracks)
		assert.NotNil(t, tracks)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestSearch_APIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"status":400,"message":"bad query"}}`))
	})

	_, err := c.Search(context.Background(), "x")

	assert.Error(t, err)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), "", "secret")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := NewClient(context.Background(), "id", "secret")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestFormatDurationBoundary(t *testing.T) {
	assert.Equal(t, "0:00", model.FormatDuration(0))
	assert.Equal(t, "0:59", model.FormatDuration(59999))
	assert.Equal(t, "1:00", model.FormatDuration(60000))
	assert.Equal(t, "10:05", model.FormatDuration(605000))
}
