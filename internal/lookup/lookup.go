// Package lookup resolves songs for the public music endpoints, combining the
// curated catalog with the YouTube Data API. Read operations never fail: an
// unavailable upstream degrades to catalog results, an empty list or a
// placeholder song.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/musicreward/musicreward/internal/metrics"
	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

const (
	// DefaultSearchLimit applies when the caller passes no positive limit.
	DefaultSearchLimit = 25
	// MaxSearchLimit is the most the YouTube search endpoint returns per page.
	MaxSearchLimit = 50
	// ChartsLimit is the number of songs fetched for the charts fallback.
	ChartsLimit = 20
)

// Catalog is the curated song source.
type Catalog interface {
	List(ctx context.Context) ([]model.FeaturedSong, error)
	Search(ctx context.Context, query string, limit int) ([]model.FeaturedSong, error)
	FindByVideoID(ctx context.Context, videoID string) (*model.FeaturedSong, error)
}

// Service answers search, charts and song detail lookups.
type Service struct {
	catalog  Catalog
	upstream Upstream
	region   string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a lookup Service. region is the default region code used when
// charts are requested without a country.
func New(catalog Catalog, upstream Upstream, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:  catalog,
		upstream: upstream,
		region:   strings.ToUpper(region),
		logger:   logger,
		now:      time.Now,
	}
}

// UpstreamEnabled reports whether external lookups are configured.
func (s *Service) UpstreamEnabled() bool {
	return s.upstream != nil && s.upstream.Enabled()
}

// Search queries YouTube for query with a " music" suffix. Without an API key
// or when the API fails it searches the active catalog instead.
func (s *Service) Search(ctx context.Context, query string, limit int) []model.Song {
	limit = clampLimit(limit)
	query = strings.TrimSpace(query)

	if s.upstream != nil && s.upstream.Enabled() && query != "" {
		songs, err := s.upstream.Search(ctx, query+" music", limit, "")
		if err == nil {
			record("search", "youtube", "ok")
			return songs
		}
		s.logger.Warn("youtube search failed, using catalog", "query", query, "error", err)
		record("search", "youtube", "error")
	}
	return s.searchCatalog(ctx, query, limit)
}

func (s *Service) searchCatalog(ctx context.Context, query string, limit int) []model.Song {
	featured, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("catalog search failed", "query", query, "error", err)
		record("search", "catalog", "error")
		return []model.Song{}
	}
	record("search", "catalog", "ok")
	return toSongs(featured)
}

// Charts returns the active catalog when it has any songs. Otherwise it asks
// YouTube for popular music in the given country; on failure the list is
// empty.
func (s *Service) Charts(ctx context.Context, country string) []model.Song {
	featured, err := s.catalog.List(ctx)
	if err != nil {
		s.logger.Error("catalog list failed", "error", err)
		record("charts", "catalog", "error")
	} else if len(featured) > 0 {
		record("charts", "catalog", "ok")
		return toSongs(featured)
	}

	if s.upstream == nil || !s.upstream.Enabled() {
		record("charts", "none", "empty")
		return []model.Song{}
	}

	region := strings.ToUpper(strings.TrimSpace(country))
	if region == "" {
		region = s.region
	}
	query := fmt.Sprintf("popular music %d %s", s.now().Year(), region)
	songs, err := s.upstream.Search(ctx, strings.TrimSpace(query), ChartsLimit, region)
	if err != nil {
		s.logger.Warn("youtube charts failed", "region", region, "error", err)
		record("charts", "youtube", "error")
		return []model.Song{}
	}
	record("charts", "youtube", "ok")
	return songs
}

// SongDetails resolves a single song: catalog first, then the YouTube videos
// endpoint, then a "Song Not Found" placeholder carrying videoID.
func (s *Service) SongDetails(ctx context.Context, videoID string) model.Song {
	featured, err := s.catalog.FindByVideoID(ctx, videoID)
	switch {
	case err == nil:
		record("details", "catalog", "ok")
		return featured.Song()
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("catalog lookup failed", "video_id", videoID, "error", err)
	}

	if s.upstream != nil && s.upstream.Enabled() {
		song, err := s.upstream.Video(ctx, videoID)
		if err == nil {
			record("details", "youtube", "ok")
			return *song
		}
		if !errors.Is(err, ErrVideoNotFound) {
			s.logger.Warn("youtube video lookup failed", "video_id", videoID, "error", err)
		}
		record("details", "youtube", "error")
	}

	record("details", "placeholder", "ok")
	return model.SongNotFound(videoID)
}

func toSongs(featured []model.FeaturedSong) []model.Song {
	songs := make([]model.Song, 0, len(featured))
	for _, f := range featured {
		songs = append(songs, f.Song())
	}
	return songs
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

func record(operation, source, result string) {
	metrics.LookupRequestsTotal.WithLabelValues(operation, source, result).Inc()
}
