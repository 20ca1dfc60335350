package session

import (
	"sync"

	"MusicSphere/core/player"
	"MusicSphere/logger"
)

// Manager 按用户维护播放会话，首次访问时创建
type Manager struct {
	resolver Resolver

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates a manager whose sessions share resolver.
func NewManager(resolver Resolver) *Manager {
	return &Manager{
		resolver: resolver,
		sessions: make(map[int64]*Session),
	}
}

// Get returns the user's session, creating it on first use.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := New(m.resolver, player.NopSink{})
	m.sessions[userID] = s
	logger.Info("[SessionManager] 创建播放会话", logger.Int64("userId", userID))
	return s
}

// Lookup returns the session without creating one.
func (m *Manager) Lookup(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Remove closes and forgets the user's session.
func (m *Manager) Remove(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close()
		logger.Info("[SessionManager] 关闭播放会话", logger.Int64("userId", userID))
	}
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
