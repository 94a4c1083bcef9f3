package handler

import (
	"log/slog"
	"net/http"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/server/middleware"
	"github.com/musicreward/musicreward/internal/service"
)

// AdminHandler serves the admin session endpoints.
type AdminHandler struct {
	sessions *service.SessionManager
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(sessions *service.SessionManager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt string             `json:"expiresAt"`
	Admin     model.AdminSummary `json:"admin"`
}

type profileResponse struct {
	Admin model.AdminSummary `json:"admin"`
}

// Login exchanges a username and password for a session token.
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, admin, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "Login failed")
		return
	}

	h.logger.Info("admin logged in", "admin_id", admin.ID, "username", admin.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC().Format(timeLayout),
		Admin:     admin.Summary(),
	})
}

// Logout deletes the caller's session. It succeeds even for an unknown or
// missing token.
// POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := h.sessions.Logout(r.Context(), token); err != nil {
			writeServiceError(w, h.logger, err, "Logout failed")
			return
		}
	}
	success(w)
}

// Profile returns the admin owning the bearer token. A token is required
// even when admin routes are open.
// GET /api/admin/profile
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		middleware.WriteAuthError(w, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Admin: model.AdminSummary{ID: p.AdminID, Username: p.Username},
	})
}
