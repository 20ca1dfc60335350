package session

import "MusicSphere/model"

const eventBufferSize = 16

// TrackChange is sent when a different track becomes current.
type TrackChange struct {
	Previous *model.Track
	Current  *model.Track
}

// ErrorEvent 播放失败通知
type ErrorEvent struct {
	TrackID string
	Message string
}

// Observer is called synchronously under the session lock, interleaved with
// the commands the session sends to its sink. Implementations must not block
// or call back into the session.
type Observer interface {
	StateChanged(State)
	Failed(ErrorEvent)
}

// Subscription provides event channels for a subscriber. Sends never block;
// a slow subscriber loses events.
type Subscription struct {
	StateChanged <-chan State
	TrackChanged <-chan TrackChange
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	stateCh chan State
	trackCh chan TrackChange
	errorCh chan ErrorEvent
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan State, eventBufferSize),
		trackCh: make(chan TrackChange, eventBufferSize),
		errorCh: make(chan ErrorEvent, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(e State) {
	select {
	case s.stateCh <- e:
	default:
		// 缓冲区满，丢弃
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
