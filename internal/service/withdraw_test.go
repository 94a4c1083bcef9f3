package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
	"github.com/musicreward/musicreward/internal/store/memory"
)

func newTestWithdraw(t *testing.T, policy WithdrawPolicy) (*WithdrawService, *memory.Store) {
	t.Helper()
	s := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithdrawService(s, s, policy, logger), s
}

func validInput(amount int64) WithdrawInput {
	return WithdrawInput{UserID: "user-1", Amount: amount, PaymentMethod: "DANA", PaymentDetails: "081234567890"}
}

func TestWithdrawCreate(t *testing.T) {
	w, _ := newTestWithdraw(t, WithdrawPolicy{Minimum: 100})

	req, err := w.Create(context.Background(), validInput(150))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != model.WithdrawPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.WalletAddress != "DANA: 081234567890" {
		t.Errorf("walletAddress = %q", req.WalletAddress)
	}
	if req.ProcessedAt != nil {
		t.Error("processedAt should be nil for pending request")
	}
}

func TestWithdrawCreateValidation(t *testing.T) {
	w, s := newTestWithdraw(t, WithdrawPolicy{Minimum: 100})
	ctx := context.Background()

	tests := []struct {
		name  string
		in    WithdrawInput
		field string
	}{
		{"below minimum", validInput(99), "amount"},
		{"zero", validInput(0), "amount"},
		{"missing method", WithdrawInput{Amount: 100, PaymentDetails: "x"}, "paymentMethod"},
		{"missing details", WithdrawInput{Amount: 100, PaymentMethod: "OVO", PaymentDetails: "  "}, "paymentDetails"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Create(ctx, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	reqs, _ := s.ListWithdraws(ctx, "")
	if len(reqs) != 0 {
		t.Errorf("rejected requests created %d rows", len(reqs))
	}
}

func TestWithdrawSetStatus(t *testing.T) {
	w, _ := newTestWithdraw(t, WithdrawPolicy{Minimum: 100})
	ctx := context.Background()

	req, _ := w.Create(ctx, validInput(100))

	if _, err := w.SetStatus(ctx, req.ID, "completed"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("invalid status error = %v, want ErrInvalidStatus", err)
	}
	if _, err := w.SetStatus(ctx, 9999, model.WithdrawApproved); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}

	first := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return first }
	got, err := w.SetStatus(ctx, req.ID, model.WithdrawApproved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.ProcessedAt == nil || !got.ProcessedAt.Equal(first) {
		t.Errorf("processedAt = %v, want %v", got.ProcessedAt, first)
	}

	// Approving twice re-stamps processedAt.
	second := first.Add(time.Hour)
	w.now = func() time.Time { return second }
	got, err = w.SetStatus(ctx, req.ID, model.WithdrawApproved)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if !got.ProcessedAt.Equal(second) {
		t.Errorf("processedAt = %v, want %v", got.ProcessedAt, second)
	}

	if _, err := w.SetStatus(ctx, req.ID, model.WithdrawRejected); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("reverse decision error = %v, want ErrAlreadyProcessed", err)
	}

	list, _ := w.List(ctx)
	if len(list) != 1 || list[0].Status != model.WithdrawApproved || list[0].ProcessedAt == nil {
		t.Errorf("List = %+v", list)
	}
}

func TestWithdrawServerWallets(t *testing.T) {
	w, s := newTestWithdraw(t, WithdrawPolicy{Minimum: 100, ServerWallets: true})
	ctx := context.Background()

	if _, err := w.Create(ctx, validInput(100)); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("empty wallet error = %v, want ErrInsufficientBalance", err)
	}

	s.CreditWallet(ctx, "user-1", 250, 0)

	noUser := validInput(100)
	noUser.UserID = ""
	var verr *ValidationError
	if _, err := w.Create(ctx, noUser); !errors.As(err, &verr) || verr.Field != "userId" {
		t.Errorf("missing userId error = %v", err)
	}

	req, err := w.Create(ctx, validInput(200))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	wallet, _ := s.GetWallet(ctx, "user-1")
	if wallet.Balance != 50 {
		t.Errorf("balance after request = %d, want 50", wallet.Balance)
	}

	if _, err := w.SetStatus(ctx, req.ID, model.WithdrawRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	wallet, _ = s.GetWallet(ctx, "user-1")
	if wallet.Balance != 250 {
		t.Errorf("balance after rejection = %d, want 250", wallet.Balance)
	}

	// Repeating the rejection must not refund twice.
	if _, err := w.SetStatus(ctx, req.ID, model.WithdrawRejected); err != nil {
		t.Fatalf("second reject: %v", err)
	}
	wallet, _ = s.GetWallet(ctx, "user-1")
	if wallet.Balance != 250 {
		t.Errorf("balance after repeated rejection = %d, want 250", wallet.Balance)
	}
}

// slowWithdraws widens the gap between reading a request and acting on it.
type slowWithdraws struct {
	*memory.Store
}

func (s slowWithdraws) GetWithdraw(ctx context.Context, id int64) (*model.WithdrawRequest, error) {
	req, err := s.Store.GetWithdraw(ctx, id)
	time.Sleep(5 * time.Millisecond)
	return req, err
}

func concurrentDecisions(w *WithdrawService, id int64, statuses ...string) []error {
	errs := make([]error, len(statuses))
	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = w.SetStatus(context.Background(), id, status)
		}()
	}
	wg.Wait()
	return errs
}

func TestWithdrawConcurrentRejectRefundsOnce(t *testing.T) {
	s := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWithdrawService(slowWithdraws{s}, s, WithdrawPolicy{Minimum: 100, ServerWallets: true}, logger)
	ctx := context.Background()

	s.CreditWallet(ctx, "user-1", 1000, 0)
	req, err := w.Create(ctx, validInput(500))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, err := range concurrentDecisions(w, req.ID, model.WithdrawRejected, model.WithdrawRejected) {
		if err != nil {
			t.Errorf("reject: %v", err)
		}
	}
	wallet, _ := s.GetWallet(ctx, "user-1")
	if wallet.Balance != 1000 {
		t.Errorf("balance after concurrent rejections = %d, want 1000", wallet.Balance)
	}
}

func TestWithdrawConcurrentApproveAndReject(t *testing.T) {
	s := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWithdrawService(slowWithdraws{s}, s, WithdrawPolicy{Minimum: 100, ServerWallets: true}, logger)
	ctx := context.Background()

	s.CreditWallet(ctx, "user-1", 1000, 0)
	req, err := w.Create(ctx, validInput(500))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	errs := concurrentDecisions(w, req.ID, model.WithdrawApproved, model.WithdrawRejected)
	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyProcessed):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 and 1 (%v)", ok, conflicts, errs)
	}

	got, _ := s.GetWithdraw(ctx, req.ID)
	wallet, _ := s.GetWallet(ctx, "user-1")
	want := int64(500)
	if got.Status == model.WithdrawRejected {
		want = 1000
	}
	if wallet.Balance != want {
		t.Errorf("balance = %d with status %q, want %d", wallet.Balance, got.Status, want)
	}
}

func TestWithdrawHistory(t *testing.T) {
	w, _ := newTestWithdraw(t, WithdrawPolicy{Minimum: 100})
	ctx := context.Background()

	w.Create(ctx, validInput(100))
	other := validInput(300)
	other.UserID = "user-2"
	w.Create(ctx, other)

	got, err := w.History(ctx, "user-2")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].Amount != 300 {
		t.Errorf("History = %+v", got)
	}

	var verr *ValidationError
	if _, err := w.History(ctx, ""); !errors.As(err, &verr) {
		t.Errorf("empty user error = %v, want ValidationError", err)
	}
}
