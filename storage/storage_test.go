package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"MusicSphere/core/resolver"
	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
)

var _ resolver.MirrorStore = (*Mirror)(nil)

func TestObjectKey(t *testing.T) {
	a := ObjectKey(model.Track{ID: "1", Title: "Song", Artist: "Band"})
	b := ObjectKey(model.Track{ID: "2", Title: " song ", Artist: "BAND"})
	c := ObjectKey(model.Track{ID: "1", Title: "Song", Artist: "Other"})

	assert.Equal(t, a, b, "key ignores catalog id, case and padding")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, MirrorPrefix))
	assert.True(t, strings.HasSuffix(a, ".mp3"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(a, MirrorPrefix), ".mp3"), 40)
}

func TestStatsAndPrint(t *testing.T) {
	now := time.Now()
	stats := &BucketStats{}
	stats.add(1000, now.Add(-time.Hour))
	stats.add(2000, now)

	assert.Equal(t, int64(2), stats.TotalObjects)
	assert.Equal(t, int64(3000), stats.TotalSize)
	assert.Equal(t, now, stats.LastModified)

	var buf bytes.Buffer
	PrintBucketStatus(&buf, "music-sphere", MirrorPrefix, []ObjectInfo{{Key: "mirror/x.mp3", Size: 3000}}, stats)
	out := buf.String()
	assert.Contains(t, out, "music-sphere")
	assert.Contains(t, out, "3.0 kB")
	assert.Contains(t, out, "mirror/x.mp3")
	assert.Contains(t, out, "audio")
}

func TestInferContentType(t *testing.T) {
	assert.Equal(t, "audio", inferContentType("a/B.MP3"))
	assert.Equal(t, "image", inferContentType("cover.webp"))
	assert.Equal(t, "other", inferContentType("noext"))
}

func TestNewMirrorDefaults(t *testing.T) {
	m := NewMirror(nil, "b", 0)
	assert.Equal(t, time.Hour, m.presignTTL)
	assert.Equal(t, "b", m.Bucket())
}
