// Package session is the playback state machine. It owns the queue, asks the
// resolver for a playable source and drives the active player front end.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"MusicSphere/core/player"
	"MusicSphere/core/queue"
	"MusicSphere/logger"
	"MusicSphere/model"
)

// Resolver is what the session needs from the media source resolver.
type Resolver interface {
	Resolve(ctx context.Context, track model.Track) *model.MediaSource
	IsLoading(track model.Track) bool
	Cached(trackID string) (*model.MediaSource, bool)
}

const inflightPollInterval = 100 * time.Millisecond

// ErrInert is returned by transport calls while there is nothing playable.
var ErrInert = errors.New("session: transport is inert")

// Session 单个用户的播放会话
type Session struct {
	resolver Resolver
	queue    *queue.Queue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	sink          player.Sink
	driver        player.Driver
	status        Status
	current       *model.Track
	isPlaying     bool
	volume        float64
	unmuteVolume  float64
	position      float64
	duration      float64
	positionKnown bool
	source        *model.MediaSource
	lastErr       string
	observer      Observer
	subs          []*Subscription
	closed        bool
}

// New creates an idle session in audio mode.
func New(resolver Resolver, sink player.Sink) *Session {
	if sink == nil {
		sink = player.NopSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		resolver:     resolver,
		queue:        queue.New(),
		ctx:          ctx,
		cancel:       cancel,
		sink:         sink,
		driver:       player.New(player.KindAudio, sink),
		status:       StatusIdle,
		volume:       DefaultVolume,
		unmuteVolume: DefaultVolume,
	}
}

// ========== 选歌与切歌 ==========

// SelectTrack makes track current and starts loading it.
//
// Selecting the track that is already current only toggles play/pause. If
// the track is in the queue the cursor moves to it. Otherwise songList, when
// given, is appended as a whole and the cursor points at the track inside it;
// with no list the track alone is appended.
func (s *Session) SelectTrack(track model.Track, songList []model.Track) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Same(track) {
		s.toggleLocked()
		return s.snapshotLocked()
	}

	if idx := s.queue.IndexOf(track.ID); idx >= 0 {
		s.queue.SetCurrentIndex(idx)
	} else if len(songList) > 0 {
		start := s.queue.Len()
		s.queue.Append(songList...)
		pos := indexOf(songList, track.ID)
		if pos < 0 {
			s.queue.Append(track)
			pos = len(songList)
		}
		s.queue.SetCurrentIndex(start + pos)
	} else {
		s.queue.Append(track)
		s.queue.SetCurrentIndex(s.queue.Len() - 1)
	}

	s.beginLoadLocked(track)
	return s.snapshotLocked()
}

// Advance moves to the next or previous queue entry. No-op without one.
func (s *Session) Advance(dir Direction) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advanceLocked(dir)
	return s.snapshotLocked()
}

func (s *Session) advanceLocked(dir Direction) bool {
	var (
		entry model.QueueEntry
		ok    bool
	)
	switch dir {
	case Next:
		entry, ok = s.queue.Next()
		if ok {
			s.queue.SetCurrentIndex(s.queue.CurrentIndex() + 1)
		}
	case Previous:
		entry, ok = s.queue.Previous()
		if ok {
			s.queue.SetCurrentIndex(s.queue.CurrentIndex() - 1)
		}
	}
	if !ok {
		return false
	}
	s.beginLoadLocked(entry.Track)
	return true
}

// PlayIndex 播放队列中指定位置的歌曲，越界忽略
func (s *Session) PlayIndex(index int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.queue.Entries()
	if index < 0 || index >= len(entries) {
		return s.snapshotLocked()
	}
	s.queue.SetCurrentIndex(index)
	s.beginLoadLocked(entries[index].Track)
	return s.snapshotLocked()
}

func (s *Session) beginLoadLocked(track model.Track) {
	prev := s.current
	if s.source != nil {
		if err := s.driver.Stop(); err != nil {
			logger.Warn("[Session] 停止上一首失败", logger.ErrorField(err))
		}
	}

	t := track
	s.current = &t
	s.isPlaying = true
	s.status = StatusLoading
	s.source = nil
	s.position = 0
	s.duration = 0
	s.positionKnown = s.driver.Capabilities().Position
	s.lastErr = ""

	for _, sub := range s.subs {
		sub.sendTrack(TrackChange{Previous: prev, Current: s.current})
	}
	s.publishLocked()

	s.wg.Add(1)
	go s.resolve(track)
}

// resolve runs outside the lock. Its result is dropped if another track has
// been selected meanwhile.
func (s *Session) resolve(track model.Track) {
	defer s.wg.Done()

	src := s.resolver.Resolve(s.ctx, track)
	if src == nil && s.resolver.IsLoading(track) {
		// 同一首歌已有解析在进行（可能来自其他会话），等它结束后读缓存
		logger.Debug("[Session] 等待进行中的解析", logger.String("trackId", track.ID))
		s.awaitInflight(track)
	}
	if src == nil {
		if cached, ok := s.resolver.Cached(track.ID); ok {
			src = cached
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.current == nil || !s.current.Same(track) || s.status != StatusLoading {
		logger.Debug("[Session] 丢弃过期的解析结果", logger.String("trackId", track.ID))
		return
	}

	if src == nil {
		s.failLocked(track.ID, "该歌曲暂无可用音源")
		return
	}

	s.source = src
	s.status = StatusReady
	if err := s.driver.Load(src, 0); err != nil {
		logger.Warn("[Session] 加载播放源失败", logger.ErrorField(err))
	}
	if err := s.driver.SetVolume(s.volume); err != nil {
		logger.Warn("[Session] 设置音量失败", logger.ErrorField(err))
	}
	if s.isPlaying {
		if err := s.driver.Play(); err != nil {
			logger.Warn("[Session] 播放失败", logger.ErrorField(err))
		}
	}
	s.publishLocked()
}

// awaitInflight polls until the resolver finishes someone else's lookup of
// track, the track stops being current, or the session closes.
func (s *Session) awaitInflight(track model.Track) {
	ticker := time.NewTicker(inflightPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.resolver.IsLoading(track) || !s.isCurrent(track) {
			return
		}
	}
}

func (s *Session) isCurrent(track model.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Same(track)
}

func (s *Session) failLocked(trackID, msg string) {
	s.status = StatusErrored
	s.isPlaying = false
	s.lastErr = msg
	logger.Warn("[Session] 播放出错",
		logger.String("trackId", trackID),
		logger.String("reason", msg))
	ev := ErrorEvent{TrackID: trackID, Message: msg}
	if s.observer != nil {
		s.observer.Failed(ev)
	}
	for _, sub := range s.subs {
		sub.sendError(ev)
	}
	s.publishLocked()
}

// ========== 传输控制 ==========

// TogglePlay flips play/pause. Inert while idle or errored.
func (s *Session) TogglePlay() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toggleLocked()
	return s.snapshotLocked()
}

func (s *Session) toggleLocked() {
	if s.status == StatusIdle || s.status == StatusErrored {
		return
	}
	s.isPlaying = !s.isPlaying
	if s.status == StatusReady {
		var err error
		if s.isPlaying {
			err = s.driver.Play()
		} else {
			err = s.driver.Pause()
		}
		if err != nil {
			logger.Warn("[Session] 切换播放状态失败", logger.ErrorField(err))
		}
	}
	s.publishLocked()
}

// Seek jumps within the current track. Returns player.ErrSeekUnsupported
// when the active front end cannot seek; the state is left untouched then.
func (s *Session) Seek(seconds float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady {
		return s.snapshotLocked(), ErrInert
	}
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	if err := s.driver.Seek(seconds); err != nil {
		return s.snapshotLocked(), err
	}
	s.position = seconds
	s.positionKnown = true
	s.publishLocked()
	return s.snapshotLocked(), nil
}

// SetVolume 设置音量，限制在 [0,1]
func (s *Session) SetVolume(level float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setVolumeLocked(clamp01(level))
	return s.snapshotLocked()
}

// AdjustVolume changes the volume by delta, clamped.
func (s *Session) AdjustVolume(delta float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setVolumeLocked(clamp01(s.volume + delta))
	return s.snapshotLocked()
}

// ToggleMute switches between silence and the previous level.
func (s *Session) ToggleMute() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume > 0 {
		s.unmuteVolume = s.volume
		s.setVolumeLocked(0)
	} else {
		v := s.unmuteVolume
		if v <= 0 {
			v = DefaultVolume
		}
		s.setVolumeLocked(v)
	}
	return s.snapshotLocked()
}

func (s *Session) setVolumeLocked(v float64) {
	s.volume = v
	if err := s.driver.SetVolume(v); err != nil {
		logger.Warn("[Session] 设置音量失败", logger.ErrorField(err))
	}
	s.publishLocked()
}

// SetMode swaps the active front end. The loaded source carries over; the
// position carries over only if the new front end can report one.
func (s *Session) SetMode(kind player.Kind) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == s.driver.Kind() {
		return s.snapshotLocked()
	}

	if s.source != nil {
		if err := s.driver.Stop(); err != nil {
			logger.Warn("[Session] 停止旧播放器失败", logger.ErrorField(err))
		}
	}

	next := player.New(kind, s.sink)
	caps := next.Capabilities()
	s.driver = next

	if !caps.Position {
		s.positionKnown = false
	} else if s.current != nil {
		s.positionKnown = true
	}

	if s.status == StatusReady && s.source != nil {
		start := 0.0
		if caps.Position {
			start = s.position
		}
		if err := next.Load(s.source, start); err != nil {
			logger.Warn("[Session] 新播放器加载失败", logger.ErrorField(err))
		}
		if err := next.SetVolume(s.volume); err != nil {
			logger.Warn("[Session] 设置音量失败", logger.ErrorField(err))
		}
		if s.isPlaying {
			if err := next.Play(); err != nil {
				logger.Warn("[Session] 播放失败", logger.ErrorField(err))
			}
		}
	}

	logger.Info("[Session] 切换播放模式", logger.String("mode", string(kind)))
	s.publishLocked()
	return s.snapshotLocked()
}

// AttachSink points the front ends at a new client connection.
func (s *Session) AttachSink(sink player.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attachLocked(sink)
}

// Attach connects a client: commands go to sink, state and errors to obs.
// obs gets the current snapshot right away. Attach(nil, nil) detaches.
func (s *Session) Attach(sink player.Sink, obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attachLocked(sink)
	s.observer = obs
	if obs != nil && !s.closed {
		obs.StateChanged(s.snapshotLocked())
	}
}

func (s *Session) attachLocked(sink player.Sink) {
	if sink == nil {
		sink = player.NopSink{}
	}
	s.sink = sink
	s.driver.Attach(sink)
}

// ========== 播放器上报 ==========

// ReportEnded handles natural end of media. An empty trackID means the
// current track; a mismatching one is stale and ignored.
func (s *Session) ReportEnded(trackID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reportMatchesLocked(trackID) || s.status != StatusReady {
		return s.snapshotLocked()
	}
	if s.advanceLocked(Next) {
		return s.snapshotLocked()
	}

	// 队列末尾，停在当前歌曲结尾，不循环
	s.isPlaying = false
	if s.duration > 0 {
		s.position = s.duration
	}
	s.publishLocked()
	return s.snapshotLocked()
}

// ReportFault marks the current track as unplayable.
func (s *Session) ReportFault(trackID, message string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reportMatchesLocked(trackID) || s.status == StatusIdle || s.status == StatusErrored {
		return s.snapshotLocked()
	}
	if message == "" {
		message = "播放失败"
	}
	s.failLocked(s.current.ID, message)
	return s.snapshotLocked()
}

// ReportProgress records position and duration from the front end. Position
// is ignored for front ends that cannot report it.
func (s *Session) ReportProgress(trackID string, position, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reportMatchesLocked(trackID) || s.status != StatusReady {
		return
	}
	if duration > 0 {
		s.duration = duration
	}
	if s.driver.Capabilities().Position && position >= 0 {
		s.position = position
		s.positionKnown = true
	}
}

func (s *Session) reportMatchesLocked(trackID string) bool {
	if s.current == nil {
		return false
	}
	return trackID == "" || trackID == s.current.ID
}

// ========== 队列操作 ==========

// Append 添加到队列末尾
func (s *Session) Append(track model.Track) queue.View {
	return s.mutateQueue(func(q *queue.Queue) queue.View { return q.Append(track) })
}

// InsertNext 下一首播放
func (s *Session) InsertNext(track model.Track) queue.View {
	return s.mutateQueue(func(q *queue.Queue) queue.View { return q.InsertNext(track) })
}

// Remove 从队列移除；正在播放的歌曲不会被打断
func (s *Session) Remove(index int) queue.View {
	return s.mutateQueue(func(q *queue.Queue) queue.View { return q.Remove(index) })
}

// Move 调整顺序
func (s *Session) Move(from, to int) queue.View {
	return s.mutateQueue(func(q *queue.Queue) queue.View { return q.Move(from, to) })
}

// ClearQueue 清空队列；正在播放的歌曲不会被打断
func (s *Session) ClearQueue() queue.View {
	return s.mutateQueue(func(q *queue.Queue) queue.View { return q.Clear() })
}

// Queue returns the current queue snapshot.
func (s *Session) Queue() queue.View {
	return s.queue.View()
}

func (s *Session) mutateQueue(fn func(q *queue.Queue) queue.View) queue.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := fn(s.queue)
	s.publishLocked()
	return v
}

// ========== 订阅与生命周期 ==========

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers for events until Unsubscribe or Close.
func (s *Session) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscription()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe removes sub and closes its Done channel.
func (s *Session) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, x := range s.subs {
		if x == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

// Wait blocks until all in-flight resolutions have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close stops pending resolutions and releases subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.observer = nil
	s.cancel()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 && s.observer == nil {
		return
	}
	st := s.snapshotLocked()
	if s.observer != nil {
		s.observer.StateChanged(st)
	}
	for _, sub := range s.subs {
		sub.sendState(st)
	}
}

func (s *Session) snapshotLocked() State {
	st := State{
		Status:          s.status,
		IsPlaying:       s.isPlaying,
		Volume:          s.volume,
		PositionSeconds: s.position,
		DurationSeconds: s.duration,
		PositionKnown:   s.positionKnown,
		Mode:            s.driver.Kind(),
		Capabilities:    s.driver.Capabilities(),
		Queue:           s.queue.View(),
		Error:           s.lastErr,
	}
	if s.current != nil {
		t := *s.current
		st.CurrentTrack = &t
	}
	if s.source != nil {
		src := *s.source
		st.Source = &src
	}
	if !st.PositionKnown {
		st.PositionSeconds = 0
	}
	return st
}

func indexOf(tracks []model.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
