package keymap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"MusicSphere/core/session"
	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	state session.State
	calls []string
	delta float64
}

func (f *fakeTransport) State() session.State { return f.state }

func (f *fakeTransport) TogglePlay() session.State {
	f.calls = append(f.calls, "toggle")
	return f.state
}

func (f *fakeTransport) Advance(dir session.Direction) session.State {
	f.calls = append(f.calls, string(dir))
	return f.state
}

func (f *fakeTransport) AdjustVolume(delta float64) session.State {
	f.calls = append(f.calls, "volume")
	f.delta += delta
	return f.state
}

func (f *fakeTransport) ToggleMute() session.State {
	f.calls = append(f.calls, "mute")
	return f.state
}

func withTrack() *fakeTransport {
	return &fakeTransport{state: session.State{CurrentTrack: &model.Track{ID: "a"}}}
}

func TestDispatch_DefaultBindings(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want string
	}{
		{KeyEvent{Key: " "}, "toggle"},
		{KeyEvent{Key: "ArrowRight", Ctrl: true}, "next"},
		{KeyEvent{Key: "n", Meta: true}, "next"},
		{KeyEvent{Key: "ArrowLeft", Meta: true}, "previous"},
		{KeyEvent{Key: "P", Ctrl: true}, "previous"},
		{KeyEvent{Key: "ArrowUp", Ctrl: true}, "volume"},
		{KeyEvent{Key: "m", Ctrl: true}, "mute"},
	}

	for _, tt := range tests {
		t.Run(Chord(tt.ev), func(t *testing.T) {
			tr := withTrack()
			_, ok := New().Dispatch(tr, tt.ev)
			require.True(t, ok)
			assert.Equal(t, []string{tt.want}, tr.calls)
		})
	}
}

func TestDispatch_ShiftFallsBackToPlainBinding(t *testing.T) {
	tr := withTrack()
	k := New()

	_, ok := k.Dispatch(tr, KeyEvent{Key: " ", Shift: true})
	require.True(t, ok)
	_, ok = k.Dispatch(tr, KeyEvent{Key: "ArrowRight", Ctrl: true, Shift: true})
	require.True(t, ok)
	assert.Equal(t, []string{"toggle", "next"}, tr.calls)

	// 显式的 shift 绑定优先
	k.Replace(map[string]Action{"mod+arrowright": ActionNext, "mod+shift+arrowright": ActionMute})
	action, ok := k.Lookup(KeyEvent{Key: "ArrowRight", Ctrl: true, Shift: true})
	require.True(t, ok)
	assert.Equal(t, ActionMute, action)

	_, ok = k.Lookup(KeyEvent{Key: "x", Shift: true})
	assert.False(t, ok)
}

func TestDispatch_VolumeStep(t *testing.T) {
	tr := withTrack()
	k := New()

	k.Dispatch(tr, KeyEvent{Key: "ArrowUp", Ctrl: true})
	k.Dispatch(tr, KeyEvent{Key: "ArrowDown", Ctrl: true})
	k.Dispatch(tr, KeyEvent{Key: "ArrowDown", Ctrl: true})

	assert.InDelta(t, -0.1, tr.delta, 1e-9)
}

func TestDispatch_SpaceNeedsCurrentTrack(t *testing.T) {
	tr := &fakeTransport{}

	_, ok := New().Dispatch(tr, KeyEvent{Key: " "})

	assert.False(t, ok)
	assert.Empty(t, tr.calls)
}

func TestDispatch_IgnoredWhileTyping(t *testing.T) {
	tr := withTrack()

	_, ok := New().Dispatch(tr, KeyEvent{Key: " ", Target: "INPUT"})
	assert.False(t, ok)
	_, ok = New().Dispatch(tr, KeyEvent{Key: "n", Ctrl: true, Target: "textarea"})
	assert.False(t, ok)
	assert.Empty(t, tr.calls)
}

func TestDispatch_UnboundKeys(t *testing.T) {
	tr := withTrack()

	_, ok := New().Dispatch(tr, KeyEvent{Key: "n"})
	assert.False(t, ok, "n without modifier is not bound")
	_, ok = New().Dispatch(tr, KeyEvent{Key: "ArrowRight"})
	assert.False(t, ok)
}

func TestDispatch_DrivesRealSession(t *testing.T) {
	s := session.New(nil, nil)
	t.Cleanup(s.Close)

	New().Dispatch(s, KeyEvent{Key: "ArrowDown", Ctrl: true})
	New().Dispatch(s, KeyEvent{Key: "m", Meta: true})

	assert.Equal(t, 0.0, s.State().Volume)
	New().Dispatch(s, KeyEvent{Key: "m", Meta: true})
	assert.InDelta(t, session.DefaultVolume-session.VolumeStep, s.State().Volume, 1e-9)
}

func TestParse(t *testing.T) {
	data := []byte(`
bindings:
  next: ["Ctrl+J"]
  mute: ["cmd+shift+m"]
`)

	b, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, ActionNext, b["mod+j"])
	_, stillBound := b["mod+arrowright"]
	assert.False(t, stillBound, "overriding an action replaces its defaults")
	assert.Equal(t, ActionMute, b["mod+shift+m"])
	assert.Equal(t, ActionToggle, b["space"], "other defaults are inherited")
}

func TestParse_NoInherit(t *testing.T) {
	b, err := Parse([]byte("inherit_defaults: false\nbindings:\n  toggle: [\"k\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]Action{"k": ActionToggle}, b)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("bindings:\n  dance: [\"d\"]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("bindings:\n  next: [\"hyper+x\"]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("bindings: [oops"))
	assert.Error(t, err)
}

func TestLoadFile_MissingKeepsDefaults(t *testing.T) {
	k := New()

	require.NoError(t, k.LoadFile(filepath.Join(t.TempDir(), "none.yaml")))

	assert.Equal(t, DefaultBindings(), k.Bindings())
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  next: [\"ctrl+j\"]\n"), 0o644))

	k := New()
	require.NoError(t, k.LoadFile(path))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, k.Watch(ctx, path))

	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  next: [\"ctrl+l\"]\n"), 0o644))

	assert.Eventually(t, func() bool {
		return k.Bindings()["mod+l"] == ActionNext
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDescribe(t *testing.T) {
	k := New()
	k.Replace(map[string]Action{"mod+n": ActionNext, "space": ActionToggle})

	assert.Equal(t, []string{"mod+n=next", "space=toggle"}, k.Describe())
}
