// Package store defines the persistence contracts of MusicReward. Backends
// live in sub-packages and are selected once at startup through a Registry.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/musicreward/musicreward/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrInsufficientBalance is returned when a wallet debit exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStatusConflict is returned when a withdraw request was already
	// decided with a different status.
	ErrStatusConflict = errors.New("status conflict")
)

// AdminStore persists admin accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error
}

// SessionStore persists admin bearer sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *model.AdminSession) error
	GetSession(ctx context.Context, token string) (*model.AdminSession, error)
	// DeleteSession removes a session. Deleting a missing token is not an error.
	DeleteSession(ctx context.Context, token string) error
}

// CatalogStore persists featured songs.
type CatalogStore interface {
	CreateSong(ctx context.Context, song *model.FeaturedSong) error
	GetSong(ctx context.Context, id int64) (*model.FeaturedSong, error)
	// ListSongs returns songs ordered by display order ascending, newest
	// first within equal orders.
	ListSongs(ctx context.Context, activeOnly bool) ([]model.FeaturedSong, error)
	DeleteSong(ctx context.Context, id int64) error
	UpdateSongOrder(ctx context.Context, id int64, order int) error
	UpdateSongActive(ctx context.Context, id int64, active bool) error
}

// WithdrawStore persists withdrawal requests.
type WithdrawStore interface {
	CreateWithdraw(ctx context.Context, req *model.WithdrawRequest) error
	GetWithdraw(ctx context.Context, id int64) (*model.WithdrawRequest, error)
	// ListWithdraws returns requests newest first. An empty userID lists all.
	ListWithdraws(ctx context.Context, userID string) ([]model.WithdrawRequest, error)
	// DecideWithdraw atomically moves a pending request to status, or
	// re-stamps processedAt when the request already carries status. It
	// reports whether this call took the request out of pending; only one
	// concurrent caller ever sees true.
	DecideWithdraw(ctx context.Context, id int64, status string, processedAt time.Time) (fromPending bool, err error)
}

// SettingsStore persists key/value admin settings.
type SettingsStore interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	// SetSettings upserts every key in values.
	SetSettings(ctx context.Context, values map[string]string) error
}

// WalletStore persists server-side listener balances.
type WalletStore interface {
	// GetWallet returns the wallet for userID, or a zero wallet if the user
	// has never earned anything.
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	// CreditWallet adds amount to balance and total earnings and songs to
	// the played counter.
	CreditWallet(ctx context.Context, userID string, amount, songs int64) (*model.Wallet, error)
	// DebitWallet removes amount from the balance, failing with
	// ErrInsufficientBalance without mutation if it would go negative.
	DebitWallet(ctx context.Context, userID string, amount int64) (*model.Wallet, error)
	// RefundWallet returns a previously debited amount to the balance
	// without counting it as earnings.
	RefundWallet(ctx context.Context, userID string, amount int64) (*model.Wallet, error)
}

// Store is the full persistence surface a backend provides.
type Store interface {
	AdminStore
	SessionStore
	CatalogStore
	WithdrawStore
	SettingsStore
	WalletStore

	Ping(ctx context.Context) error
	Close() error
}

// Options configures a backend at open time.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}
