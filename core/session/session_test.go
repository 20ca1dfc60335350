package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"MusicSphere/core/player"
	"MusicSphere/core/resolver"
	"MusicSphere/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	sources map[string]*model.MediaSource
	gates   map[string]chan struct{}
	calls   map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		sources: make(map[string]*model.MediaSource),
		gates:   make(map[string]chan struct{}),
		calls:   make(map[string]int),
	}
}

func (f *fakeResolver) playable(ids ...string) *fakeResolver {
	for _, id := range ids {
		f.sources[id] = &model.MediaSource{Kind: model.SourceDirectPreview, URL: "http://audio/" + id, QualityHint: model.QualityHigh}
	}
	return f
}

func (f *fakeResolver) Resolve(_ context.Context, t model.Track) *model.MediaSource {
	f.mu.Lock()
	f.calls[t.ID]++
	gate := f.gates[t.ID]
	src := f.sources[t.ID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return src
}

func (f *fakeResolver) IsLoading(model.Track) bool { return false }

func (f *fakeResolver) Cached(string) (*model.MediaSource, bool) { return nil, false }

func (f *fakeResolver) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func track(id string) model.Track {
	return model.Track{ID: id, Title: "Song " + id, Artist: "Band", DurationLabel: "3:20"}
}

func newTestSession(t *testing.T, res Resolver) (*Session, *player.Recorder) {
	t.Helper()
	rec := player.NewRecorder()
	s := New(res, rec)
	t.Cleanup(s.Close)
	return s, rec
}

func queueIDs(st State) []string {
	out := []string{}
	for _, e := range st.Queue.Entries {
		out = append(out, e.Track.ID)
	}
	return out
}

func TestNewSessionIsIdle(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver())

	st := s.State()

	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.CurrentTrack)
	assert.False(t, st.IsPlaying)
	assert.Equal(t, DefaultVolume, st.Volume)
	assert.Equal(t, player.KindAudio, st.Mode)
	assert.Equal(t, -1, st.Queue.CurrentIndex)
}

func TestSelectTrack_LoadsAndPlays(t *testing.T) {
	res := newFakeResolver().playable("A")
	s, rec := newTestSession(t, res)

	st := s.SelectTrack(track("A"), nil)
	assert.Equal(t, StatusLoading, st.Status)
	assert.True(t, st.IsPlaying)
	assert.Equal(t, "A", st.CurrentTrack.ID)
	assert.Equal(t, []string{"A"}, queueIDs(st))
	assert.Equal(t, 0, st.Queue.CurrentIndex)

	s.Wait()
	st = s.State()

	assert.Equal(t, StatusReady, st.Status)
	assert.True(t, st.Playing())
	require.NotNil(t, st.Source)
	assert.Equal(t, "http://audio/A", st.Source.URL)
	assert.Equal(t, []string{player.OpLoad, player.OpVolume, player.OpPlay}, rec.Ops())
}

func TestSelectTrack_SameTrackToggles(t *testing.T) {
	res := newFakeResolver().playable("A")
	s, rec := newTestSession(t, res)
	s.SelectTrack(track("A"), nil)
	s.Wait()
	rec.Reset()
	before := s.State()

	st := s.SelectTrack(track("A"), []model.Track{track("X"), track("A")})
	s.Wait()

	assert.False(t, st.IsPlaying)
	assert.True(t, st.Paused())
	assert.Equal(t, before.Queue, st.Queue, "queue must not change")
	assert.Equal(t, 1, res.callCount("A"), "no new resolution")
	assert.Equal(t, []string{player.OpPause}, rec.Ops())

	st = s.SelectTrack(track("A"), nil)
	assert.True(t, st.IsPlaying)
}

func TestSelectTrack_WithSongListAppendsWholeList(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B", "C", "Z"))
	s.SelectTrack(track("Z"), nil)

	st := s.SelectTrack(track("B"), []model.Track{track("A"), track("B"), track("C")})

	assert.Equal(t, []string{"Z", "A", "B", "C"}, queueIDs(st))
	assert.Equal(t, 2, st.Queue.CurrentIndex)
	assert.Equal(t, "B", st.CurrentTrack.ID)
}

func TestSelectTrack_TrackMissingFromSongList(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver())

	st := s.SelectTrack(track("X"), []model.Track{track("A"), track("B")})

	assert.Equal(t, []string{"A", "B", "X"}, queueIDs(st))
	assert.Equal(t, 2, st.Queue.CurrentIndex)
}

func TestSelectTrack_AlreadyQueuedMovesCursorOnly(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B", "C"))
	s.Append(track("A"))
	s.Append(track("B"))
	s.Append(track("C"))

	st := s.SelectTrack(track("C"), []model.Track{track("Q")})

	assert.Equal(t, []string{"A", "B", "C"}, queueIDs(st))
	assert.Equal(t, 2, st.Queue.CurrentIndex)
}

func TestAdvance_Scenario(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B", "C"))
	s.SelectTrack(track("A"), []model.Track{track("A"), track("B"), track("C")})
	s.Wait()

	s.Advance(Next)
	s.Wait()
	st := s.Advance(Next)
	s.Wait()

	assert.Equal(t, 2, st.Queue.CurrentIndex)
	assert.Equal(t, "C", st.CurrentTrack.ID)
	assert.True(t, st.IsPlaying)

	before := s.State()
	after := s.Advance(Next)
	assert.Equal(t, before, after, "advance past the end is a no-op")

	st = s.Advance(Previous)
	assert.Equal(t, "B", st.CurrentTrack.ID)
	assert.Equal(t, StatusLoading, st.Status)
}

func TestAdvance_ForcesPlaying(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B"))
	s.SelectTrack(track("A"), []model.Track{track("A"), track("B")})
	s.Wait()
	s.TogglePlay()
	require.False(t, s.State().IsPlaying)

	st := s.Advance(Next)

	assert.True(t, st.IsPlaying)
}

func TestResolutionFailure_ErroredAndInert(t *testing.T) {
	res := newFakeResolver().playable("B")
	s, rec := newTestSession(t, res)
	sub := s.Subscribe()

	s.SelectTrack(track("A"), nil)
	s.Wait()
	st := s.State()

	assert.Equal(t, StatusErrored, st.Status)
	assert.False(t, st.IsPlaying)
	assert.NotEmpty(t, st.Error)
	assert.Empty(t, rec.Ops())

	select {
	case ev := <-sub.Error:
		assert.Equal(t, "A", ev.TrackID)
	case <-time.After(time.Second):
		t.Fatal("expected error event")
	}

	assert.False(t, s.TogglePlay().IsPlaying, "toggle is inert")
	assert.False(t, s.SelectTrack(track("A"), nil).IsPlaying, "reselecting the errored track is inert")
	_, err := s.Seek(10)
	assert.ErrorIs(t, err, ErrInert)

	st = s.SelectTrack(track("B"), nil)
	assert.Equal(t, StatusLoading, st.Status)
	s.Wait()
	assert.Equal(t, StatusReady, s.State().Status)
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	res := newFakeResolver().playable("A", "B")
	gate := make(chan struct{})
	res.gates["A"] = gate
	s, _ := newTestSession(t, res)

	s.SelectTrack(track("A"), nil)
	s.SelectTrack(track("B"), nil)
	require.Eventually(t, func() bool { return s.State().Status == StatusReady }, time.Second, 5*time.Millisecond)

	close(gate)
	s.Wait()

	st := s.State()
	assert.Equal(t, "B", st.CurrentTrack.ID)
	require.NotNil(t, st.Source)
	assert.Equal(t, "http://audio/B", st.Source.URL)
}

func TestTogglePlay_WhileLoadingAppliesOnReady(t *testing.T) {
	res := newFakeResolver().playable("A")
	gate := make(chan struct{})
	res.gates["A"] = gate
	s, rec := newTestSession(t, res)

	s.SelectTrack(track("A"), nil)
	st := s.TogglePlay()
	assert.False(t, st.IsPlaying)
	assert.Equal(t, StatusLoading, st.Status)

	close(gate)
	s.Wait()

	assert.True(t, s.State().Paused())
	assert.NotContains(t, rec.Ops(), player.OpPlay)
}

func TestTogglePlay_IdleIsInert(t *testing.T) {
	s, rec := newTestSession(t, newFakeResolver())

	st := s.TogglePlay()

	assert.Equal(t, StatusIdle, st.Status)
	assert.False(t, st.IsPlaying)
	assert.Empty(t, rec.Ops())
}

func TestReportEnded(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B"))
	s.SelectTrack(track("A"), []model.Track{track("A"), track("B")})
	s.Wait()

	st := s.ReportEnded("stale-id")
	assert.Equal(t, "A", st.CurrentTrack.ID, "stale report ignored")

	st = s.ReportEnded("A")
	assert.Equal(t, "B", st.CurrentTrack.ID)
	s.Wait()

	s.ReportProgress("B", 199, 200)
	st = s.ReportEnded("")

	assert.Equal(t, "B", st.CurrentTrack.ID, "no wrap at the end")
	assert.True(t, st.Paused())
	assert.Equal(t, 200.0, st.PositionSeconds)
	assert.Equal(t, 1, st.Queue.CurrentIndex)
}

func TestReportFault(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A"))
	s.SelectTrack(track("A"), nil)
	s.Wait()

	st := s.ReportFault("A", "decode error")

	assert.Equal(t, StatusErrored, st.Status)
	assert.Equal(t, "decode error", st.Error)
	assert.False(t, st.IsPlaying)
}

func TestSeek(t *testing.T) {
	s, rec := newTestSession(t, newFakeResolver().playable("A"))
	s.SelectTrack(track("A"), nil)
	s.Wait()
	s.ReportProgress("A", 5, 200)

	st, err := s.Seek(50)
	require.NoError(t, err)
	assert.Equal(t, 50.0, st.PositionSeconds)

	st, err = s.Seek(500)
	require.NoError(t, err)
	assert.Equal(t, 200.0, st.PositionSeconds)

	st, err = s.Seek(-3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.PositionSeconds)

	last, _ := rec.Last()
	assert.Equal(t, player.OpSeek, last.Op)
}

func TestSeek_VideoIsCapabilityGap(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A"))
	s.SetMode(player.KindVideo)
	s.SelectTrack(track("A"), nil)
	s.Wait()

	st, err := s.Seek(30)

	assert.ErrorIs(t, err, player.ErrSeekUnsupported)
	assert.False(t, st.PositionKnown)
	assert.False(t, st.Capabilities.Seek)
}

func TestSetMode_PreservesPositionWhenReportable(t *testing.T) {
	s, rec := newTestSession(t, newFakeResolver().playable("A"))
	s.SelectTrack(track("A"), nil)
	s.Wait()
	s.ReportProgress("A", 42, 200)
	rec.Reset()

	st := s.SetMode(player.KindVideo)

	assert.Equal(t, player.KindVideo, st.Mode)
	assert.False(t, st.PositionKnown, "embed cannot report position")
	assert.Equal(t, "A", st.CurrentTrack.ID)
	assert.Equal(t, []string{player.OpStop, player.OpLoad, player.OpVolume, player.OpPlay}, rec.Ops())

	s.ReportProgress("A", 99, 200)
	assert.False(t, s.State().PositionKnown)

	rec.Reset()
	st = s.SetMode(player.KindAudio)

	assert.True(t, st.PositionKnown)
	assert.Equal(t, 42.0, st.PositionSeconds)
	cmds := rec.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, player.OpLoad, cmds[1].Op)
	assert.Equal(t, 42.0, cmds[1].Seconds)
	assert.Equal(t, player.KindAudio, cmds[1].Driver)
}

func TestSetMode_SameModeIsNoop(t *testing.T) {
	s, rec := newTestSession(t, newFakeResolver())

	s.SetMode(player.KindAudio)

	assert.Empty(t, rec.Ops())
}

func TestVolume(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver())

	assert.Equal(t, 1.0, s.SetVolume(1.7).Volume)
	assert.Equal(t, 0.0, s.SetVolume(-1).Volume)
	assert.InDelta(t, 0.1, s.AdjustVolume(0.1).Volume, 1e-9)
	assert.Equal(t, 0.0, s.AdjustVolume(-0.5).Volume)
}

func TestToggleMute(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver())
	s.SetVolume(0)
	assert.Equal(t, DefaultVolume, s.ToggleMute().Volume)

	s.SetVolume(0.4)
	assert.Equal(t, 0.0, s.ToggleMute().Volume)
	assert.Equal(t, 0.4, s.ToggleMute().Volume)
}

func TestQueueOperationsThroughSession(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A", "B", "C"))
	s.Append(track("A"))
	s.Append(track("B"))
	v := s.InsertNext(track("C"))
	assert.Equal(t, -1, v.CurrentIndex)

	st := s.PlayIndex(1)
	assert.Equal(t, "A", st.CurrentTrack.ID)

	v = s.Move(1, 0)
	assert.Equal(t, 0, v.CurrentIndex)

	v = s.Remove(2)
	assert.Len(t, v.Entries, 2)

	v = s.ClearQueue()
	assert.Empty(t, v.Entries)
	assert.Equal(t, "A", s.State().CurrentTrack.ID, "clearing the queue keeps the current track")

	assert.Equal(t, "A", s.PlayIndex(5).CurrentTrack.ID, "out of range play is ignored")
}

func TestSubscription(t *testing.T) {
	s, _ := newTestSession(t, newFakeResolver().playable("A"))
	sub := s.Subscribe()

	s.SelectTrack(track("A"), nil)
	s.Wait()

	select {
	case tc := <-sub.TrackChanged:
		assert.Nil(t, tc.Previous)
		assert.Equal(t, "A", tc.Current.ID)
	case <-time.After(time.Second):
		t.Fatal("expected track change")
	}

	var last State
	for len(sub.StateChanged) > 0 {
		last = <-sub.StateChanged
	}
	assert.Equal(t, StatusReady, last.Status)

	s.Unsubscribe(sub)
	select {
	case <-sub.Done:
	default:
		t.Fatal("Done should be closed after Unsubscribe")
	}
}

// streamLog 把指令和状态记到同一条流里
type streamLog struct {
	mu     sync.Mutex
	events []string
}

func (l *streamLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *streamLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *streamLog) Send(cmd player.Command) error {
	l.add(cmd.Op)
	return nil
}

func (l *streamLog) StateChanged(st State) { l.add("state:" + string(st.Status)) }

func (l *streamLog) Failed(e ErrorEvent) { l.add("error:" + e.TrackID) }

func TestAttach_OrdersCommandsAndState(t *testing.T) {
	res := newFakeResolver().playable("A")
	s, _ := newTestSession(t, res)
	log := &streamLog{}

	s.Attach(log, log)
	s.SelectTrack(track("A"), nil)
	s.Wait()
	s.SelectTrack(track("X"), nil)
	s.Wait()

	assert.Equal(t, []string{
		"state:idle",
		"state:loading", player.OpLoad, player.OpVolume, player.OpPlay, "state:ready",
		player.OpStop, "state:loading", "error:X", "state:errored",
	}, log.all())

	s.Attach(nil, nil)
	s.TogglePlay()
	s.SelectTrack(track("A"), nil)
	s.Wait()
	assert.Len(t, log.all(), 10, "detached observer gets nothing")
}

func TestWithRealResolver_DirectPreview(t *testing.T) {
	calls := 0
	fallback := resolver.StrategyFunc{Label: "count", Fn: func(context.Context, model.Track) (*model.MediaSource, error) {
		calls++
		return nil, nil
	}}
	s, _ := newTestSession(t, resolver.New(fallback))

	tr := track("A")
	tr.PreviewAudioURL = "http://a"
	s.SelectTrack(tr, nil)
	s.Wait()

	st := s.State()
	require.NotNil(t, st.Source)
	assert.Equal(t, model.SourceDirectPreview, st.Source.Kind)
	assert.Equal(t, "http://a", st.Source.URL)
	assert.Equal(t, 0, calls)
}

func TestManager(t *testing.T) {
	m := NewManager(newFakeResolver())

	a := m.Get(1)
	assert.Same(t, a, m.Get(1))
	assert.NotSame(t, a, m.Get(2))
	assert.Equal(t, 2, m.Count())

	_, ok := m.Lookup(3)
	assert.False(t, ok)

	m.Remove(1)
	_, ok = m.Lookup(1)
	assert.False(t, ok)

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}
