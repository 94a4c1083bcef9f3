package handler

import (
	"log/slog"
	"net/http"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/service"
)

// AdSettingsHandler serves the ad-injection settings. Script content is
// stored and returned verbatim.
type AdSettingsHandler struct {
	settings *service.AdSettingsService
	logger   *slog.Logger
}

// NewAdSettingsHandler creates an AdSettingsHandler.
func NewAdSettingsHandler(settings *service.AdSettingsService, logger *slog.Logger) *AdSettingsHandler {
	return &AdSettingsHandler{settings: settings, logger: logger}
}

type adSettingsResponse struct {
	Settings *model.AdSettings `json:"settings"`
}

// Get returns the current settings.
// GET /api/admin/ad-settings
func (h *AdSettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load ad settings")
		return
	}
	writeJSON(w, http.StatusOK, adSettingsResponse{Settings: s})
}

// Save replaces all settings.
// POST /api/admin/ad-settings
func (h *AdSettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.AdSettings
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.settings.Save(r.Context(), req); err != nil {
		writeServiceError(w, h.logger, err, "Failed to save ad settings")
		return
	}
	h.logger.Info("ad settings saved", "enabled", req.IsEnabled)
	success(w)
}
