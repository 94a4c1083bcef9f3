package model

import "time"

// Withdrawal statuses. Pending is the only non-terminal state.
const (
	WithdrawPending  = "pending"
	WithdrawApproved = "approved"
	WithdrawRejected = "rejected"
)

// WithdrawRequest is a user-initiated cash-out awaiting an admin decision.
// Amounts are whole rupiah.
type WithdrawRequest struct {
	ID            int64      `json:"id" db:"id"`
	UserID        string     `json:"userId" db:"user_id"`
	Amount        int64      `json:"amount" db:"amount"`
	WalletAddress string     `json:"walletAddress" db:"wallet_address"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	ProcessedAt   *time.Time `json:"processedAt" db:"processed_at"`
}

// IsTerminal reports whether the request has been decided.
func (w *WithdrawRequest) IsTerminal() bool {
	return w.Status == WithdrawApproved || w.Status == WithdrawRejected
}

// ValidDecision reports whether status is an admin decision value.
func ValidDecision(status string) bool {
	return status == WithdrawApproved || status == WithdrawRejected
}
