package handler

import (
	"log/slog"
	"net/http"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/service"
)

// CatalogHandler serves the featured-song catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type songsResponse[T any] struct {
	Songs []T `json:"songs"`
}

type addSongRequest struct {
	VideoID      string `json:"videoId" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Artist       string `json:"artist" validate:"required"`
	Thumbnail    string `json:"thumbnail"`
	Duration     *int   `json:"duration" validate:"omitnil,gte=0"`
	DisplayOrder *int   `json:"displayOrder"`
}

type songResponse struct {
	Song *model.FeaturedSong `json:"song"`
}

type orderRequest struct {
	DisplayOrder *int `json:"displayOrder" validate:"required"`
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ListPublic returns the active songs in display order.
// GET /api/featured-songs
func (h *CatalogHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list featured songs")
		return
	}
	writeJSON(w, http.StatusOK, songsResponse[model.FeaturedSong]{Songs: songs})
}

// List returns every song, active or not.
// GET /api/admin/featured-songs
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list featured songs")
		return
	}
	writeJSON(w, http.StatusOK, songsResponse[model.FeaturedSong]{Songs: songs})
}

// Create adds a featured song.
// POST /api/admin/featured-songs
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addSongRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	song, err := h.catalog.Add(r.Context(), service.AddSongInput{
		VideoID:      req.VideoID,
		Title:        req.Title,
		Artist:       req.Artist,
		Thumbnail:    req.Thumbnail,
		Duration:     req.Duration,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to add featured song")
		return
	}
	h.logger.Info("featured song added", "id", song.ID, "video_id", song.VideoID)
	writeJSON(w, http.StatusOK, songResponse{Song: song})
}

// Delete removes a song.
// DELETE /api/admin/featured-songs/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Remove(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete featured song")
		return
	}
	success(w)
}

// SetOrder changes a song's display order.
// PATCH /api/admin/featured-songs/{id}/order
func (h *CatalogHandler) SetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.catalog.SetOrder(r.Context(), id, *req.DisplayOrder); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update song order")
		return
	}
	success(w)
}

// SetStatus shows or hides a song. Mounted on both /status and /toggle.
// PATCH /api/admin/featured-songs/{id}/status
func (h *CatalogHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.catalog.SetActive(r.Context(), id, *req.IsActive); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update song status")
		return
	}
	success(w)
}
