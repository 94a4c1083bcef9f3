package handler

import (
	"log/slog"
	"net/http"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/service"
)

// WithdrawHandler serves the user and admin sides of the withdrawal workflow.
type WithdrawHandler struct {
	withdraws *service.WithdrawService
	logger    *slog.Logger
}

// NewWithdrawHandler creates a WithdrawHandler.
func NewWithdrawHandler(withdraws *service.WithdrawService, logger *slog.Logger) *WithdrawHandler {
	return &WithdrawHandler{withdraws: withdraws, logger: logger}
}

type withdrawRequest struct {
	UserID         string `json:"userId"`
	Amount         int64  `json:"amount"`
	PaymentMethod  string `json:"paymentMethod" validate:"required"`
	PaymentDetails string `json:"paymentDetails" validate:"required"`
}

type withdrawResponse struct {
	Success bool                   `json:"success"`
	Request *model.WithdrawRequest `json:"request"`
}

type requestsResponse struct {
	Requests []model.WithdrawRequest `json:"requests"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Create submits a withdrawal. Amount is checked against the configured
// minimum by the service so the error names the minimum.
// POST /api/user/withdraw
func (h *WithdrawHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.withdraws.Create(r.Context(), service.WithdrawInput{
		UserID:         req.UserID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to submit withdraw request")
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{Success: true, Request: created})
}

// History lists one user's withdrawals, newest first.
// GET /api/user/withdrawals?userId=
func (h *WithdrawHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := queryString(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Validation failed", "userId is required")
		return
	}
	reqs, err := h.withdraws.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list withdraw requests")
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse{Requests: reqs})
}

// List returns every withdrawal, newest first.
// GET /api/admin/withdrawals
func (h *WithdrawHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.withdraws.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list withdraw requests")
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse{Requests: reqs})
}

// SetStatus approves or rejects a withdrawal.
// PATCH /api/admin/withdrawals/{id}
func (h *WithdrawHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.withdraws.SetStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update withdraw request")
		return
	}
	success(w)
}
