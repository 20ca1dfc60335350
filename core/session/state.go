package session

import (
	"MusicSphere/core/player"
	"MusicSphere/core/queue"
	"MusicSphere/model"
)

// Status 会话状态
type Status string

const (
	StatusIdle    Status = "idle"    // 没有当前歌曲
	StatusLoading Status = "loading" // 正在解析播放源
	StatusReady   Status = "ready"   // 可播放，IsPlaying 区分播放/暂停
	StatusErrored Status = "errored" // 当前歌曲不可播放
)

// Direction for Advance.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
)

// ParseDirection 解析方向参数
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Next, Previous:
		return Direction(s), true
	}
	return "", false
}

const (
	DefaultVolume = 0.7
	VolumeStep    = 0.1
)

// State is an immutable snapshot of a session.
type State struct {
	Status          Status              `json:"status"`
	CurrentTrack    *model.Track        `json:"currentTrack"`
	IsPlaying       bool                `json:"isPlaying"`
	Volume          float64             `json:"volume"`
	PositionSeconds float64             `json:"positionSeconds"`
	DurationSeconds float64             `json:"durationSeconds"`
	PositionKnown   bool                `json:"positionKnown"` // false 时 PositionSeconds 无意义
	Source          *model.MediaSource  `json:"source,omitempty"`
	Mode            player.Kind         `json:"mode"`
	Capabilities    player.Capabilities `json:"capabilities"`
	Queue           queue.View          `json:"queue"`
	Error           string              `json:"error,omitempty"`
}

// Paused reports the Ready-but-not-playing sub-state.
func (s State) Paused() bool {
	return s.Status == StatusReady && !s.IsPlaying
}

// Playing reports the Ready-and-playing sub-state.
func (s State) Playing() bool {
	return s.Status == StatusReady && s.IsPlaying
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
