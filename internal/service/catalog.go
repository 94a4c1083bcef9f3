package service

import (
	"context"
	"strings"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// AddSongInput is the admin payload for a new featured song. Nil optional
// fields take their defaults.
type AddSongInput struct {
	VideoID      string
	Title        string
	Artist       string
	Thumbnail    string
	Duration     *int
	DisplayOrder *int
}

// CatalogService curates the featured-song list that doubles as the playable
// catalog.
type CatalogService struct {
	songs store.CatalogStore
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(songs store.CatalogStore) *CatalogService {
	return &CatalogService{songs: songs}
}

// List returns the active songs in presentation order.
func (c *CatalogService) List(ctx context.Context) ([]model.FeaturedSong, error) {
	return c.songs.ListSongs(ctx, true)
}

// ListAll returns every song, including inactive ones, for the admin panel.
func (c *CatalogService) ListAll(ctx context.Context) ([]model.FeaturedSong, error) {
	return c.songs.ListSongs(ctx, false)
}

// Add validates and stores a new featured song. Songs start active.
func (c *CatalogService) Add(ctx context.Context, in AddSongInput) (*model.FeaturedSong, error) {
	song := &model.FeaturedSong{
		VideoID:   strings.TrimSpace(in.VideoID),
		Title:     strings.TrimSpace(in.Title),
		Artist:    strings.TrimSpace(in.Artist),
		Thumbnail: strings.TrimSpace(in.Thumbnail),
		Duration:  model.DefaultSongDuration,
		IsActive:  true,
	}
	switch {
	case song.VideoID == "":
		return nil, invalid("videoId", "is required")
	case song.Title == "":
		return nil, invalid("title", "is required")
	case song.Artist == "":
		return nil, invalid("artist", "is required")
	}
	if in.Duration != nil {
		if *in.Duration < 0 {
			return nil, invalid("duration", "must not be negative")
		}
		song.Duration = *in.Duration
	}
	if in.DisplayOrder != nil {
		song.DisplayOrder = *in.DisplayOrder
	}
	if song.Thumbnail == "" {
		song.Thumbnail = model.DefaultThumbnail(song.VideoID)
	}

	if err := c.songs.CreateSong(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// Remove hard-deletes a song.
func (c *CatalogService) Remove(ctx context.Context, id int64) error {
	return c.songs.DeleteSong(ctx, id)
}

// SetOrder changes a song's display order.
func (c *CatalogService) SetOrder(ctx context.Context, id int64, order int) error {
	return c.songs.UpdateSongOrder(ctx, id, order)
}

// SetActive shows or hides a song.
func (c *CatalogService) SetActive(ctx context.Context, id int64, active bool) error {
	return c.songs.UpdateSongActive(ctx, id, active)
}

// Search matches query case-insensitively against title and artist of the
// active songs, returning at most limit results.
func (c *CatalogService) Search(ctx context.Context, query string, limit int) ([]model.FeaturedSong, error) {
	songs, err := c.songs.ListSongs(ctx, true)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.FeaturedSong, 0, limit)
	for _, s := range songs {
		if len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Artist), q) {
			out = append(out, s)
		}
	}
	return out, nil
}

// FindByVideoID returns the first active song with the given video id in
// display order.
func (c *CatalogService) FindByVideoID(ctx context.Context, videoID string) (*model.FeaturedSong, error) {
	songs, err := c.songs.ListSongs(ctx, true)
	if err != nil {
		return nil, err
	}
	for i := range songs {
		if songs[i].VideoID == videoID {
			return &songs[i], nil
		}
	}
	return nil, store.ErrNotFound
}
