package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/musicreward/musicreward/internal/lookup"
	"github.com/musicreward/musicreward/internal/model"
)

// MusicHandler serves the public lookup endpoints. Upstream failures never
// surface here: the lookup service degrades to catalog results, an empty
// list or a placeholder song.
type MusicHandler struct {
	lookup *lookup.Service
}

// NewMusicHandler creates a MusicHandler.
func NewMusicHandler(l *lookup.Service) *MusicHandler {
	return &MusicHandler{lookup: l}
}

type songDetailResponse struct {
	Song model.Song `json:"song"`
}

// Search finds songs matching q.
// GET /api/ytmusic/search?q=&limit=
func (h *MusicHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := queryString(r, "q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "Query parameter required")
		return
	}
	songs := h.lookup.Search(r.Context(), q, queryInt(r, "limit", lookup.DefaultSearchLimit))
	writeJSON(w, http.StatusOK, songsResponse[model.Song]{Songs: songs})
}

// Charts returns the featured catalog, or trending songs when it is empty.
// GET /api/ytmusic/charts?country=
func (h *MusicHandler) Charts(w http.ResponseWriter, r *http.Request) {
	songs := h.lookup.Charts(r.Context(), queryString(r, "country"))
	writeJSON(w, http.StatusOK, songsResponse[model.Song]{Songs: songs})
}

// Song returns one song, or a placeholder when it cannot be found.
// GET /api/ytmusic/song/{videoId}
func (h *MusicHandler) Song(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSpace(chi.URLParam(r, "videoId"))
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}
	writeJSON(w, http.StatusOK, songDetailResponse{Song: h.lookup.SongDetails(r.Context(), videoID)})
}
