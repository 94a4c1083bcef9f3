package handler

import (
	"net/http"
	"time"

	"github.com/musicreward/musicreward/internal/model"
)

const timeLayout = time.RFC3339

// SystemHandler serves the API liveness endpoints used by the frontend.
type SystemHandler struct {
	environment string
	now         func() time.Time
}

// NewSystemHandler creates a SystemHandler reporting the given environment
// name (for example the storage driver in use).
func NewSystemHandler(environment string) *SystemHandler {
	return &SystemHandler{environment: environment, now: time.Now}
}

// Health reports that the API is up.
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(timeLayout),
		Message:   "MusicReward API is healthy",
	})
}

// Test is the connectivity check the frontend calls on startup.
// GET /api/test
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:      "OK",
		Timestamp:   h.now().UTC().Format(timeLayout),
		Environment: h.environment,
		Message:     "MusicReward API Working",
	})
}

// ConfigHandler publishes the reward and withdrawal policy so the listener
// app does not hardcode it.
type ConfigHandler struct {
	cfg model.ClientConfig
}

// NewConfigHandler creates a ConfigHandler serving cfg.
func NewConfigHandler(cfg model.ClientConfig) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// Config returns the client policy.
// GET /api/config
func (h *ConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg)
}

// NotFound is the JSON 404 for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":  "Route not found",
		"path":   r.URL.Path,
		"method": r.Method,
	})
}

// MethodNotAllowed is the JSON 405 for known paths with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
}
