package model

import "time"

// LikedSong 用户收藏的歌曲
type LikedSong struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         int64     `json:"userId" gorm:"uniqueIndex:idx_user_track;not null"`
	SpotifyTrackID string    `json:"spotifyTrackId" gorm:"size:64;uniqueIndex:idx_user_track;not null"`
	TrackName      string    `json:"trackName" gorm:"size:255;not null"`
	ArtistName     string    `json:"artistName" gorm:"size:255"`
	AlbumName      string    `json:"albumName" gorm:"size:255"`
	CoverImage     string    `json:"coverImage" gorm:"size:512"`
	PreviewURL     string    `json:"previewUrl" gorm:"size:512"`
	DurationLabel  string    `json:"duration" gorm:"size:16"`
	AddedAt        time.Time `json:"addedAt" gorm:"index"`
}

// TableName 指定表名
func (LikedSong) TableName() string {
	return "liked_songs"
}

// ToTrack 转换为核心使用的 Track
func (l LikedSong) ToTrack() Track {
	return Track{
		ID:              l.SpotifyTrackID,
		Title:           l.TrackName,
		Artist:          l.ArtistName,
		Album:           l.AlbumName,
		DurationLabel:   l.DurationLabel,
		CoverImageURL:   CoverOrPlaceholder(l.CoverImage),
		PreviewAudioURL: l.PreviewURL,
	}
}

// NewLikedSong builds a row for the given user from a track.
func NewLikedSong(userID int64, t Track) *LikedSong {
	return &LikedSong{
		UserID:         userID,
		SpotifyTrackID: t.ID,
		TrackName:      t.Title,
		ArtistName:     t.Artist,
		AlbumName:      t.Album,
		CoverImage:     t.CoverImageURL,
		PreviewURL:     t.PreviewAudioURL,
		DurationLabel:  t.DurationLabel,
		AddedAt:        time.Now(),
	}
}

// Playlist 用户歌单
type Playlist struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      int64     `json:"userId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CoverImage  string    `json:"coverImage" gorm:"size:512"`
	IsPublic    bool      `json:"isPublic" gorm:"default:false"`
	SongCount   int       `json:"songCount" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistUpdate 歌单可修改字段，nil 表示不修改
type PlaylistUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// PlaylistSong 歌单中的歌曲，按 Position 升序排列
type PlaylistSong struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID     string    `json:"playlistId" gorm:"size:36;uniqueIndex:idx_playlist_track;not null"`
	SpotifyTrackID string    `json:"spotifyTrackId" gorm:"size:64;uniqueIndex:idx_playlist_track;not null"`
	TrackName      string    `json:"trackName" gorm:"size:255;not null"`
	ArtistName     string    `json:"artistName" gorm:"size:255"`
	AlbumName      string    `json:"albumName" gorm:"size:255"`
	CoverImage     string    `json:"coverImage" gorm:"size:512"`
	PreviewURL     string    `json:"previewUrl" gorm:"size:512"`
	DurationLabel  string    `json:"duration" gorm:"size:16"`
	Position       int       `json:"position" gorm:"not null"`
	AddedAt        time.Time `json:"addedAt"`
}

// TableName 指定表名
func (PlaylistSong) TableName() string {
	return "playlist_songs"
}

// ToTrack 转换为核心使用的 Track
func (p PlaylistSong) ToTrack() Track {
	return Track{
		ID:              p.SpotifyTrackID,
		Title:           p.TrackName,
		Artist:          p.ArtistName,
		Album:           p.AlbumName,
		DurationLabel:   p.DurationLabel,
		CoverImageURL:   CoverOrPlaceholder(p.CoverImage),
		PreviewAudioURL: p.PreviewURL,
	}
}

// NewPlaylistSong builds a membership row at the given position.
func NewPlaylistSong(playlistID string, t Track, position int) *PlaylistSong {
	return &PlaylistSong{
		PlaylistID:     playlistID,
		SpotifyTrackID: t.ID,
		TrackName:      t.Title,
		ArtistName:     t.Artist,
		AlbumName:      t.Album,
		CoverImage:     t.CoverImageURL,
		PreviewURL:     t.PreviewAudioURL,
		DurationLabel:  t.DurationLabel,
		Position:       position,
		AddedAt:        time.Now(),
	}
}
