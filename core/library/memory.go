package library

import (
	"context"
	"sort"
	"sync"

	"MusicSphere/model"
)

// MemoryStore keeps likes and playlists in process memory. It is used when
// no database is configured and by tests.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	likes     []model.LikedSong
	playlists map[string]model.Playlist
	songs     map[string][]model.PlaylistSong
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		playlists: make(map[string]model.Playlist),
		songs:     make(map[string][]model.PlaylistSong),
	}
}

func (m *MemoryStore) AddLike(_ context.Context, song *model.LikedSong) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.likes {
		if l.UserID == song.UserID && l.SpotifyTrackID == song.SpotifyTrackID {
			return nil
		}
	}
	m.nextID++
	song.ID = m.nextID
	m.likes = append(m.likes, *song)
	return nil
}

func (m *MemoryStore) DeleteLike(_ context.Context, userID int64, trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.likes {
		if l.UserID == userID && l.SpotifyTrackID == trackID {
			m.likes = append(m.likes[:i], m.likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) IsLiked(_ context.Context, userID int64, trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.likes {
		if l.UserID == userID && l.SpotifyTrackID == trackID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListLikes(_ context.Context, userID int64) ([]model.LikedSong, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LikedSong{}
	for i := len(m.likes) - 1; i >= 0; i-- {
		if m.likes[i].UserID == userID {
			out = append(out, m.likes[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (m *MemoryStore) CreatePlaylist(_ context.Context, p *model.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPlaylist(_ context.Context, id string) (*model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) ListPlaylists(_ context.Context, userID int64) ([]model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Playlist{}
	for _, p := range m.playlists {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdatePlaylist(_ context.Context, p *model.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playlists[p.ID]; !ok {
		return nil
	}
	m.playlists[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeletePlaylist(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.playlists, id)
	delete(m.songs, id)
	return nil
}

func (m *MemoryStore) AddSong(_ context.Context, song *model.PlaylistSong) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	song.ID = m.nextID
	m.songs[song.PlaylistID] = append(m.songs[song.PlaylistID], *song)
	return nil
}

func (m *MemoryStore) RemoveSong(_ context.Context, playlistID, trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.songs[playlistID]
	for i, s := range list {
		if s.SpotifyTrackID == trackID {
			m.songs[playlistID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListSongs(_ context.Context, playlistID string) ([]model.PlaylistSong, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.PlaylistSong{}, m.songs[playlistID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) UpdateSongPosition(_ context.Context, playlistID, trackID string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.songs[playlistID] {
		if m.songs[playlistID][i].SpotifyTrackID == trackID {
			m.songs[playlistID][i].Position = position
		}
	}
	return nil
}

func (m *MemoryStore) CountSongs(_ context.Context, playlistIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(playlistIDs))
	for _, id := range playlistIDs {
		out[id] = len(m.songs[id])
	}
	return out, nil
}
