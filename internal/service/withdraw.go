package service

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

// WithdrawPolicy configures the withdrawal workflow.
type WithdrawPolicy struct {
	// Minimum is the smallest amount, in rupiah, that may be requested.
	Minimum int64
	// ServerWallets debits the server-side wallet on request and refunds
	// it on rejection. When false the balance is client-owned and the
	// server only records requests.
	ServerWallets bool
}

// WithdrawInput is a user's cash-out request.
type WithdrawInput struct {
	UserID         string
	Amount         int64
	PaymentMethod  string
	PaymentDetails string
}

// WithdrawService runs the pending → approved/rejected workflow.
type WithdrawService struct {
	requests store.WithdrawStore
	wallets  store.WalletStore
	policy   WithdrawPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewWithdrawService creates a WithdrawService.
func NewWithdrawService(requests store.WithdrawStore, wallets store.WalletStore, policy WithdrawPolicy, logger *slog.Logger) *WithdrawService {
	return &WithdrawService{
		requests: requests,
		wallets:  wallets,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Minimum returns the configured minimum withdrawal.
func (w *WithdrawService) Minimum() int64 {
	return w.policy.Minimum
}

// Create validates and records a pending withdrawal. Validation failures
// leave no record and no balance change.
func (w *WithdrawService) Create(ctx context.Context, in WithdrawInput) (*model.WithdrawRequest, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	method := strings.TrimSpace(in.PaymentMethod)
	details := strings.TrimSpace(in.PaymentDetails)

	var verr error
	switch {
	case in.Amount < w.policy.Minimum || in.Amount <= 0:
		verr = invalid("amount", fmt.Sprintf("must be at least Rp%d", w.policy.Minimum))
	case method == "":
		verr = invalid("paymentMethod", "is required")
	case details == "":
		verr = invalid("paymentDetails", "is required")
	case w.policy.ServerWallets && in.UserID == "":
		verr = invalid("userId", "is required")
	}
	if verr != nil {
		metrics.WithdrawRequestsTotal.WithLabelValues("rejected_validation").Inc()
		return nil, verr
	}

	if w.policy.ServerWallets {
		if _, err := w.wallets.DebitWallet(ctx, in.UserID, in.Amount); err != nil {
			if errors.Is(err, store.ErrInsufficientBalance) {
				metrics.WithdrawRequestsTotal.WithLabelValues("insufficient_balance").Inc()
			}
			return nil, err
		}
	}

	req := &model.WithdrawRequest{
		UserID:        in.UserID,
		Amount:        in.Amount,
		WalletAddress: method + ": " + details,
		Status:        model.WithdrawPending,
		CreatedAt:     w.now(),
	}
	if err := w.requests.CreateWithdraw(ctx, req); err != nil {
		if w.policy.ServerWallets {
			if _, rerr := w.wallets.RefundWallet(ctx, in.UserID, in.Amount); rerr != nil {
				w.logger.Error("refund after failed withdraw insert", "user_id", in.UserID, "amount", in.Amount, "error", rerr)
			}
		}
		return nil, err
	}

	metrics.WithdrawRequestsTotal.WithLabelValues("created").Inc()
	w.logger.Info("withdraw requested", "id", req.ID, "user_id", req.UserID, "amount", req.Amount)
	return req, nil
}

// List returns every request, newest first.
func (w *WithdrawService) List(ctx context.Context) ([]model.WithdrawRequest, error) {
	return w.requests.ListWithdraws(ctx, "")
}

// History returns one user's requests, newest first.
func (w *WithdrawService) History(ctx context.Context, userID string) ([]model.WithdrawRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid("userId", "is required")
	}
	return w.requests.ListWithdraws(ctx, userID)
}

// SetStatus records an admin decision. Repeating the same decision
// re-stamps processedAt; changing a decided request fails with
// ErrAlreadyProcessed.
func (w *WithdrawService) SetStatus(ctx context.Context, id int64, status string) (*model.WithdrawRequest, error) {
	if !model.ValidDecision(status) {
		return nil, ErrInvalidStatus
	}
	now := w.now()
	fromPending, err := w.requests.DecideWithdraw(ctx, id, status, now)
	if errors.Is(err, store.ErrStatusConflict) {
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		return nil, err
	}
	req, err := w.requests.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}

	if fromPending {
		metrics.WithdrawRequestsTotal.WithLabelValues(status).Inc()
		if w.policy.ServerWallets && status == model.WithdrawRejected && req.UserID != "" {
			if _, err := w.wallets.RefundWallet(ctx, req.UserID, req.Amount); err != nil {
				return nil, fmt.Errorf("refund rejected withdraw: %w", err)
			}
		}
	}
	w.logger.Info("withdraw processed", "id", id, "status", status)
	return req, nil
}
