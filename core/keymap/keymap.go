// Package keymap maps keyboard events to transport actions. It never talks to
// a player directly; every action goes through the session.
package keymap

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"MusicSphere/core/session"
	"MusicSphere/logger"
)

// Action 快捷键动作
type Action string

const (
	ActionToggle     Action = "toggle"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionMute       Action = "mute"
)

var knownActions = map[Action]bool{
	ActionToggle: true, ActionNext: true, ActionPrevious: true,
	ActionVolumeUp: true, ActionVolumeDown: true, ActionMute: true,
}

// KeyEvent is a key press as reported by the client.
type KeyEvent struct {
	Key    string `json:"key"`
	Ctrl   bool   `json:"ctrl"`
	Meta   bool   `json:"meta"`
	Shift  bool   `json:"shift"`
	Target string `json:"target,omitempty"` // 焦点元素类型，如 input
}

// Transport is the part of the session the keymap may drive.
type Transport interface {
	State() session.State
	TogglePlay() session.State
	Advance(dir session.Direction) session.State
	AdjustVolume(delta float64) session.State
	ToggleMute() session.State
}

// DefaultBindings 默认快捷键，mod 表示 Ctrl 或 Cmd
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"space":          ActionToggle,
		"mod+arrowright": ActionNext,
		"mod+n":          ActionNext,
		"mod+arrowleft":  ActionPrevious,
		"mod+p":          ActionPrevious,
		"mod+arrowup":    ActionVolumeUp,
		"mod+arrowdown":  ActionVolumeDown,
		"mod+m":          ActionMute,
	}
}

// Keymap is safe for concurrent use; bindings can be swapped at runtime.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[string]Action
}

// New creates a keymap with the default bindings.
func New() *Keymap {
	return &Keymap{bindings: DefaultBindings()}
}

// Bindings returns a copy of the active bindings.
func (k *Keymap) Bindings() map[string]Action {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[string]Action, len(k.bindings))
	for c, a := range k.bindings {
		out[c] = a
	}
	return out
}

// Replace swaps in a new binding set.
func (k *Keymap) Replace(bindings map[string]Action) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings = bindings
}

// Lookup 返回事件对应的动作
func (k *Keymap) Lookup(ev KeyEvent) (Action, bool) {
	if isTyping(ev.Target) {
		return "", false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if a, ok := k.bindings[Chord(ev)]; ok {
		return a, true
	}
	// 没有专门绑定 shift 组合时忽略 shift
	if ev.Shift {
		ev.Shift = false
		a, ok := k.bindings[Chord(ev)]
		return a, ok
	}
	return "", false
}

// Dispatch routes the event to t. It reports the action taken, if any.
func (k *Keymap) Dispatch(t Transport, ev KeyEvent) (Action, bool) {
	action, ok := k.Lookup(ev)
	if !ok {
		return "", false
	}

	switch action {
	case ActionToggle:
		// 没有当前歌曲时空格不生效
		if t.State().CurrentTrack == nil {
			return "", false
		}
		t.TogglePlay()
	case ActionNext:
		t.Advance(session.Next)
	case ActionPrevious:
		t.Advance(session.Previous)
	case ActionVolumeUp:
		t.AdjustVolume(session.VolumeStep)
	case ActionVolumeDown:
		t.AdjustVolume(-session.VolumeStep)
	case ActionMute:
		t.ToggleMute()
	default:
		return "", false
	}

	logger.Debug("[Keymap] 执行快捷键",
		logger.String("chord", Chord(ev)),
		logger.String("action", string(action)))
	return action, true
}

// Chord normalizes an event into the binding key form, e.g. "mod+arrowright".
func Chord(ev KeyEvent) string {
	key := strings.ToLower(strings.TrimSpace(ev.Key))
	if ev.Key == " " || key == "spacebar" {
		key = "space"
	}
	var b strings.Builder
	if ev.Ctrl || ev.Meta {
		b.WriteString("mod+")
	}
	if ev.Shift {
		b.WriteString("shift+")
	}
	b.WriteString(key)
	return b.String()
}

// normalizeChord accepts user written chords such as "Ctrl+Shift+N" or
// "cmd+ArrowUp" and rewrites them in Chord form.
func normalizeChord(s string) (string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var mod, shift bool
	key := ""
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			key = p
			break
		}
		switch p {
		case "ctrl", "control", "cmd", "meta", "mod":
			mod = true
		case "shift":
			shift = true
		default:
			return "", fmt.Errorf("未知的修饰键 %q", p)
		}
	}
	if key == "" {
		return "", fmt.Errorf("快捷键为空: %q", s)
	}
	if key == " " || key == "spacebar" {
		key = "space"
	}
	return Chord(KeyEvent{Key: key, Ctrl: mod, Shift: shift}), nil
}

func isTyping(target string) bool {
	switch strings.ToLower(target) {
	case "input", "textarea", "select", "contenteditable":
		return true
	}
	return false
}

// Describe lists bindings as "chord=action", sorted. Used by the CLI.
func (k *Keymap) Describe() []string {
	b := k.Bindings()
	out := make([]string, 0, len(b))
	for c, a := range b {
		out = append(out, c+"="+string(a))
	}
	sort.Strings(out)
	return out
}
