package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/reward"
	"github.com/musicreward/musicreward/internal/store"
)

// PlayHandler serves server-attested play sessions and wallet balances.
// It is only mounted when server-attested rewards are enabled.
type PlayHandler struct {
	tracker *reward.Tracker
	wallets store.WalletStore
	logger  *slog.Logger
}

// NewPlayHandler creates a PlayHandler.
func NewPlayHandler(tracker *reward.Tracker, wallets store.WalletStore, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{tracker: tracker, wallets: wallets, logger: logger}
}

type startPlayRequest struct {
	UserID  string `json:"userId" validate:"required"`
	VideoID string `json:"videoId" validate:"required"`
}

type heartbeatRequest struct {
	Token   string `json:"token" validate:"required"`
	Playing bool   `json:"playing"`
}

type endPlayRequest struct {
	Token string `json:"token" validate:"required"`
}

type walletResponse struct {
	Wallet *model.Wallet `json:"wallet"`
}

// Start opens a play session.
// POST /api/user/plays
func (h *PlayHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startPlayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	play, err := h.tracker.Start(r.Context(), req.UserID, req.VideoID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to start play")
		return
	}
	writeJSON(w, http.StatusCreated, play)
}

// Heartbeat reports that the session is still alive and whether it is
// playing.
// POST /api/user/plays/{playId}/heartbeat
func (h *PlayHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.tracker.Heartbeat(r.Context(), chi.URLParam(r, "playId"), req.Token, req.Playing)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to record heartbeat")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// End closes a session. The body carries the play token so one listener
// cannot end another's play.
// DELETE /api/user/plays/{playId}
func (h *PlayHandler) End(w http.ResponseWriter, r *http.Request) {
	var req endPlayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.tracker.End(chi.URLParam(r, "playId"), req.Token); err != nil {
		writeServiceError(w, h.logger, err, "Failed to end play")
		return
	}
	success(w)
}

// Balance returns a user's server-side wallet.
// GET /api/user/balance?userId=
func (h *PlayHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := queryString(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Validation failed", "userId is required")
		return
	}
	wallet, err := h.wallets.GetWallet(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load wallet")
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Wallet: wallet})
}
