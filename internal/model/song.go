package model

import "time"

// DefaultSongDuration is the placeholder length, in seconds, used whenever the
// real duration of a video is unknown.
const DefaultSongDuration = 180

// FeaturedSong is an admin-curated catalog entry. Active songs form the
// public playable list ordered by DisplayOrder.
type FeaturedSong struct {
	ID           int64     `json:"id" db:"id"`
	VideoID      string    `json:"videoId" db:"video_id"`
	Title        string    `json:"title" db:"title"`
	Artist       string    `json:"artist" db:"artist"`
	Thumbnail    string    `json:"thumbnail" db:"thumbnail"`
	Duration     int       `json:"duration" db:"duration"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	DisplayOrder int       `json:"displayOrder" db:"display_order"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Song is the playable shape returned by the music lookup endpoints,
// regardless of whether it came from the catalog or the YouTube API.
type Song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
	AudioURL  string `json:"audioUrl"`
}

// WatchURL returns the YouTube watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// DefaultThumbnail returns the YouTube still used when no thumbnail is given.
func DefaultThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

// Song converts a catalog entry to the lookup shape.
func (f *FeaturedSong) Song() Song {
	return Song{
		ID:        f.VideoID,
		Title:     f.Title,
		Artist:    f.Artist,
		Thumbnail: f.Thumbnail,
		Duration:  f.Duration,
		AudioURL:  WatchURL(f.VideoID),
	}
}

// SongNotFound is the displayable placeholder returned when a video cannot be
// resolved anywhere.
func SongNotFound(videoID string) Song {
	return Song{
		ID:       videoID,
		Title:    "Song Not Found",
		Artist:   "Unknown Artist",
		Duration: DefaultSongDuration,
		AudioURL: WatchURL(videoID),
	}
}
