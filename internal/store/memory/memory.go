// Package memory is an in-process Store backed by mutex-guarded maps. State
// is lost on restart; it is the default backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// Store implements store.Store in memory.
type Store struct {
	mu sync.Mutex

	admins    map[int64]model.Admin
	sessions  map[string]model.AdminSession
	songs     map[int64]model.FeaturedSong
	withdraws map[int64]model.WithdrawRequest
	settings  map[string]string
	wallets   map[string]model.Wallet

	nextAdminID    int64
	nextSongID     int64
	nextWithdrawID int64

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		admins:    map[int64]model.Admin{},
		sessions:  map[string]model.AdminSession{},
		songs:     map[int64]model.FeaturedSong{},
		withdraws: map[int64]model.WithdrawRequest{},
		settings:  map[string]string{},
		wallets:   map[string]model.Wallet{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Open is a store.Factory for the "memory" driver.
func Open(_ context.Context, _ store.Options) (store.Store, error) {
	return New(), nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ---------------------------------------------------------------------------
// Admins
// ---------------------------------------------------------------------------

func (s *Store) CreateAdmin(_ context.Context, admin *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.admins {
		if a.Username == admin.Username {
			return fmt.Errorf("admin %q: %w", admin.Username, store.ErrDuplicate)
		}
	}
	s.nextAdminID++
	admin.ID = s.nextAdminID
	admin.CreatedAt = s.now()
	s.admins[admin.ID] = *admin
	return nil
}

func (s *Store) GetAdmin(_ context.Context, id int64) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListAdmins(_ context.Context) ([]model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateAdminPassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PasswordHash = passwordHash
	s.admins[id] = a
	return nil
}

func (s *Store) UpdateAdminLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	at = at.UTC()
	a.LastLoginAt = &at
	s.admins[id] = a
	return nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess *model.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.Token]; ok {
		return store.ErrDuplicate
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (*model.AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// ---------------------------------------------------------------------------
// Featured songs
// ---------------------------------------------------------------------------

func (s *Store) CreateSong(_ context.Context, song *model.FeaturedSong) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSongID++
	song.ID = s.nextSongID
	if song.CreatedAt.IsZero() {
		song.CreatedAt = s.now()
	}
	s.songs[song.ID] = *song
	return nil
}

func (s *Store) GetSong(_ context.Context, id int64) (*model.FeaturedSong, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &song, nil
}

func (s *Store) ListSongs(_ context.Context, activeOnly bool) ([]model.FeaturedSong, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.FeaturedSong, 0, len(s.songs))
	for _, song := range s.songs {
		if activeOnly && !song.IsActive {
			continue
		}
		out = append(out, song)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *Store) DeleteSong(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.songs, id)
	return nil
}

func (s *Store) UpdateSongOrder(_ context.Context, id int64, order int) error {
	return s.updateSong(id, func(song *model.FeaturedSong) { song.DisplayOrder = order })
}

func (s *Store) UpdateSongActive(_ context.Context, id int64, active bool) error {
	return s.updateSong(id, func(song *model.FeaturedSong) { song.IsActive = active })
}

func (s *Store) updateSong(id int64, fn func(*model.FeaturedSong)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&song)
	s.songs[id] = song
	return nil
}

// ---------------------------------------------------------------------------
// Withdrawals
// ---------------------------------------------------------------------------

func (s *Store) CreateWithdraw(_ context.Context, req *model.WithdrawRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWithdrawID++
	req.ID = s.nextWithdrawID
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	s.withdraws[req.ID] = *req
	return nil
}

func (s *Store) GetWithdraw(_ context.Context, id int64) (*model.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.withdraws[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &req, nil
}

func (s *Store) ListWithdraws(_ context.Context, userID string) ([]model.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.WithdrawRequest, 0, len(s.withdraws))
	for _, req := range s.withdraws {
		if userID != "" && req.UserID != userID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DecideWithdraw(_ context.Context, id int64, status string, processedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.withdraws[id]
	if !ok {
		return false, store.ErrNotFound
	}
	fromPending := req.Status == model.WithdrawPending
	if !fromPending && req.Status != status {
		return false, store.ErrStatusConflict
	}
	processedAt = processedAt.UTC()
	req.Status = status
	req.ProcessedAt = &processedAt
	s.withdraws[id] = req
	return fromPending, nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetSettings(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		s.settings[k] = v
	}
	return nil
}

// ---------------------------------------------------------------------------
// Wallets
// ---------------------------------------------------------------------------

func (s *Store) GetWallet(_ context.Context, userID string) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[userID]
	if !ok {
		w = model.Wallet{UserID: userID}
	}
	return &w, nil
}

func (s *Store) CreditWallet(_ context.Context, userID string, amount, songs int64) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.wallets[userID]
	w.UserID = userID
	w.Balance += amount
	w.TotalEarnings += amount
	w.SongsPlayed += songs
	w.UpdatedAt = s.now()
	s.wallets[userID] = w
	return &w, nil
}

func (s *Store) DebitWallet(_ context.Context, userID string, amount int64) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[userID]
	if !ok || w.Balance < amount {
		return nil, store.ErrInsufficientBalance
	}
	w.Balance -= amount
	w.UpdatedAt = s.now()
	s.wallets[userID] = w
	return &w, nil
}

func (s *Store) RefundWallet(_ context.Context, userID string, amount int64) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.wallets[userID]
	w.UserID = userID
	w.Balance += amount
	w.UpdatedAt = s.now()
	s.wallets[userID] = w
	return &w, nil
}
