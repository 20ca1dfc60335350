package player

import (
	"errors"
	"testing"

	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioDriver(t *testing.T) {
	rec := NewRecorder()
	d := NewAudioDriver(rec)

	assert.Equal(t, KindAudio, d.Kind())
	assert.Equal(t, Capabilities{Seek: true, Position: true}, d.Capabilities())

	require.NoError(t, d.Load(&model.MediaSource{Kind: model.SourceDirectPreview, URL: "http://a"}, 12))
	require.NoError(t, d.Play())
	require.NoError(t, d.Seek(30))
	require.NoError(t, d.SetVolume(0.5))
	require.NoError(t, d.Pause())

	assert.Equal(t, []string{OpLoad, OpPlay, OpSeek, OpVolume, OpPause}, rec.Ops())
	cmds := rec.Commands()
	assert.Equal(t, Command{Op: OpLoad, Driver: KindAudio, URL: "http://a", SourceKind: model.SourceDirectPreview, Seconds: 12}, cmds[0])
	assert.Equal(t, 30.0, cmds[2].Seconds)
	assert.Equal(t, 0.5, cmds[3].Volume)
}

func TestVideoDriver_SeekIsCapabilityGap(t *testing.T) {
	rec := NewRecorder()
	d := NewVideoDriver(rec)

	assert.Equal(t, Capabilities{}, d.Capabilities())
	assert.ErrorIs(t, d.Seek(10), ErrSeekUnsupported)
	assert.Empty(t, rec.Ops(), "unsupported seek must not reach the client")

	require.NoError(t, d.Load(&model.MediaSource{Kind: model.SourceEmbeddedVideo, URL: "http://e"}, 42))
	last, _ := rec.Last()
	assert.Equal(t, 0.0, last.Seconds)
	assert.Equal(t, KindVideo, last.Driver)
}

func TestDriver_NilSourceAndSinkErrors(t *testing.T) {
	rec := NewRecorder()
	rec.Err = errors.New("closed")

	assert.Error(t, NewAudioDriver(rec).Load(nil, 0))
	assert.Error(t, NewVideoDriver(rec).Load(nil, 0))
	assert.Error(t, NewAudioDriver(rec).Play())
}

func TestAttachNilFallsBackToNop(t *testing.T) {
	d := NewAudioDriver(nil)
	assert.NoError(t, d.Play())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("video")
	require.NoError(t, err)
	assert.Equal(t, KindVideo, k)

	_, err = ParseKind("vinyl")
	assert.Error(t, err)

	assert.Equal(t, KindAudio, New(KindAudio, nil).Kind())
	assert.Equal(t, KindVideo, New(KindVideo, nil).Kind())
}
