// Package player holds the front end adapters that the playback session
// drives. The actual decoding happens on the client; a driver only turns
// transport calls into commands for its Sink.
package player

import (
	"errors"
	"fmt"
	"sync"

	"MusicSphere/model"
)

// Kind 播放器类型
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ParseKind 解析播放器类型，未知值返回错误
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAudio, KindVideo:
		return Kind(s), nil
	}
	return "", fmt.Errorf("未知的播放模式: %q", s)
}

// ErrSeekUnsupported is returned by drivers whose primitive cannot seek.
var ErrSeekUnsupported = errors.New("player: seek not supported by this driver")

// Capabilities 播放器能力
type Capabilities struct {
	Seek     bool `json:"seek"`
	Position bool `json:"position"` // 能否上报播放进度
}

// Driver is the transport contract shared by all front ends.
type Driver interface {
	Kind() Kind
	Capabilities() Capabilities
	Load(src *model.MediaSource, startAt float64) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(level float64) error
	Stop() error
	Attach(sink Sink)
}

// Command operations sent to the client.
const (
	OpLoad   = "load"
	OpPlay   = "play"
	OpPause  = "pause"
	OpSeek   = "seek"
	OpVolume = "volume"
	OpStop   = "stop"
)

// Command 发送给客户端播放器的指令
type Command struct {
	Op         string           `json:"op"`
	Driver     Kind             `json:"driver"`
	URL        string           `json:"url,omitempty"`
	SourceKind model.SourceKind `json:"sourceKind,omitempty"`
	Seconds    float64          `json:"seconds,omitempty"`
	Volume     float64          `json:"volume,omitempty"`
}

// Sink receives driver commands.
type Sink interface {
	Send(cmd Command) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(cmd Command) error

func (f SinkFunc) Send(cmd Command) error { return f(cmd) }

// NopSink discards commands. Used when no client is attached.
type NopSink struct{}

func (NopSink) Send(Command) error { return nil }

// base 公共实现
type base struct {
	kind Kind
	caps Capabilities

	mu   sync.Mutex
	sink Sink
}

func (b *base) Kind() Kind                 { return b.kind }
func (b *base) Capabilities() Capabilities { return b.caps }

// Attach swaps the sink. A nil sink detaches.
func (b *base) Attach(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sink == nil {
		sink = NopSink{}
	}
	b.sink = sink
}

func (b *base) send(cmd Command) error {
	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()

	cmd.Driver = b.kind
	if err := sink.Send(cmd); err != nil {
		return fmt.Errorf("发送%s指令失败: %w", cmd.Op, err)
	}
	return nil
}

func (b *base) Play() error  { return b.send(Command{Op: OpPlay}) }
func (b *base) Pause() error { return b.send(Command{Op: OpPause}) }
func (b *base) Stop() error  { return b.send(Command{Op: OpStop}) }

func (b *base) SetVolume(level float64) error {
	return b.send(Command{Op: OpVolume, Volume: level})
}

// AudioDriver 原生 audio 元素播放器，支持跳转和进度上报
type AudioDriver struct {
	base
}

// NewAudioDriver creates an audio driver writing to sink.
func NewAudioDriver(sink Sink) *AudioDriver {
	d := &AudioDriver{base: base{kind: KindAudio, caps: Capabilities{Seek: true, Position: true}}}
	d.Attach(sink)
	return d
}

func (d *AudioDriver) Load(src *model.MediaSource, startAt float64) error {
	if src == nil {
		return errors.New("player: nil source")
	}
	return d.send(Command{Op: OpLoad, URL: src.URL, SourceKind: src.Kind, Seconds: startAt})
}

func (d *AudioDriver) Seek(seconds float64) error {
	return d.send(Command{Op: OpSeek, Seconds: seconds})
}

// VideoDriver drives a third-party embed. The embed exposes neither seeking
// nor a reliable position, so Seek reports ErrSeekUnsupported and the start
// offset passed to Load is dropped.
type VideoDriver struct {
	base
}

// NewVideoDriver creates an embed driver writing to sink.
func NewVideoDriver(sink Sink) *VideoDriver {
	d := &VideoDriver{base: base{kind: KindVideo}}
	d.Attach(sink)
	return d
}

func (d *VideoDriver) Load(src *model.MediaSource, _ float64) error {
	if src == nil {
		return errors.New("player: nil source")
	}
	return d.send(Command{Op: OpLoad, URL: src.URL, SourceKind: src.Kind})
}

func (d *VideoDriver) Seek(float64) error {
	return ErrSeekUnsupported
}

// New 根据类型创建播放器
func New(kind Kind, sink Sink) Driver {
	if kind == KindVideo {
		return NewVideoDriver(sink)
	}
	return NewAudioDriver(sink)
}
