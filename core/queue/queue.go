// Package queue implements the play queue: an ordered list of tracks with a
// cursor pointing at the current entry.
//
// The cursor is always -1 or a valid index once a mutation returns. Indices
// passed in by callers are frequently stale, so out of range requests are
// ignored rather than reported.
package queue

import (
	"sync"
	"time"

	"MusicSphere/model"
)

// View 队列快照
type View struct {
	Entries      []model.QueueEntry `json:"entries"`
	CurrentIndex int                `json:"currentIndex"`
}

// Queue is safe for concurrent use.
type Queue struct {
	mu           sync.RWMutex
	entries      []model.QueueEntry
	currentIndex int // -1 表示未选中

	now func() time.Time
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		currentIndex: -1,
		now:          time.Now,
	}
}

// Append 添加到末尾，不改变当前位置
func (q *Queue) Append(tracks ...model.Track) View {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range tracks {
		q.entries = append(q.entries, q.entry(t))
	}
	return q.viewLocked()
}

// InsertNext 插入到当前歌曲之后；未选中时插入到队首
func (q *Queue) InsertNext(track model.Track) View {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos := q.currentIndex + 1 // -1 时为 0
	q.entries = append(q.entries, model.QueueEntry{})
	copy(q.entries[pos+1:], q.entries[pos:])
	q.entries[pos] = q.entry(track)
	return q.viewLocked()
}

// Remove deletes the entry at index. Out of range is a no-op.
//
// Removing at or before the cursor moves the cursor back by one, except when
// the cursor is already at 0: then it stays at 0 and points at whatever slid
// into the front slot.
func (q *Queue) Remove(index int) View {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.entries) {
		return q.viewLocked()
	}

	q.entries = append(q.entries[:index], q.entries[index+1:]...)

	if index <= q.currentIndex && q.currentIndex > 0 {
		q.currentIndex--
	}
	q.clampLocked()
	return q.viewLocked()
}

// Move relocates an entry. The cursor keeps pointing at the same logical
// entry.
func (q *Queue) Move(from, to int) View {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return q.viewLocked()
	}

	moved := q.entries[from]
	q.entries = append(q.entries[:from], q.entries[from+1:]...)
	q.entries = append(q.entries, model.QueueEntry{})
	copy(q.entries[to+1:], q.entries[to:])
	q.entries[to] = moved

	cur := q.currentIndex
	switch {
	case cur < 0:
	case from == cur:
		q.currentIndex = to
	case from < cur && to >= cur:
		q.currentIndex = cur - 1
	case from > cur && to <= cur:
		q.currentIndex = cur + 1
	}
	return q.viewLocked()
}

// Clear 清空队列
func (q *Queue) Clear() View {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
	q.currentIndex = -1
	return q.viewLocked()
}

// SetCurrentIndex accepts -1 <= index < Len(); anything else is ignored.
func (q *Queue) SetCurrentIndex(index int) View {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index >= -1 && index < len(q.entries) {
		q.currentIndex = index
	}
	return q.viewLocked()
}

// ========== 只读视图 ==========

// View returns a snapshot of the queue.
func (q *Queue) View() View {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.viewLocked()
}

// Len 队列长度
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// CurrentIndex returns the cursor (-1 if none).
func (q *Queue) CurrentIndex() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.currentIndex
}

// Current returns the entry under the cursor.
func (q *Queue) Current() (model.QueueEntry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.at(q.currentIndex)
}

// Next returns the entry after the cursor without moving it.
func (q *Queue) Next() (model.QueueEntry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.hasNextLocked() {
		return model.QueueEntry{}, false
	}
	return q.at(q.currentIndex + 1)
}

// Previous returns the entry before the cursor without moving it.
func (q *Queue) Previous() (model.QueueEntry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.hasPreviousLocked() {
		return model.QueueEntry{}, false
	}
	return q.at(q.currentIndex - 1)
}

// HasNext 当前之后是否还有歌曲
func (q *Queue) HasNext() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.hasNextLocked()
}

// HasPrevious 当前之前是否还有歌曲
func (q *Queue) HasPrevious() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.hasPreviousLocked()
}

// IndexOf returns the first position holding the track id, or -1.
func (q *Queue) IndexOf(trackID string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i, e := range q.entries {
		if e.Track.ID == trackID {
			return i
		}
	}
	return -1
}

// Entries returns a copy of the entries.
func (q *Queue) Entries() []model.QueueEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshotLocked()
}

// ========== 内部方法（需持有锁） ==========

func (q *Queue) entry(t model.Track) model.QueueEntry {
	return model.QueueEntry{Track: t, AddedAt: q.now()}
}

func (q *Queue) at(i int) (model.QueueEntry, bool) {
	if i < 0 || i >= len(q.entries) {
		return model.QueueEntry{}, false
	}
	return q.entries[i], true
}

func (q *Queue) hasNextLocked() bool {
	// 未选中时下一首为队首
	return q.currentIndex < len(q.entries)-1
}

func (q *Queue) hasPreviousLocked() bool {
	return q.currentIndex > 0
}

func (q *Queue) clampLocked() {
	if len(q.entries) == 0 {
		q.currentIndex = -1
		return
	}
	if q.currentIndex >= len(q.entries) {
		q.currentIndex = len(q.entries) - 1
	}
}

func (q *Queue) snapshotLocked() []model.QueueEntry {
	out := make([]model.QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) viewLocked() View {
	return View{Entries: q.snapshotLocked(), CurrentIndex: q.currentIndex}
}
