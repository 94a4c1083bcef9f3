// Package sqlstore implements store.Store on sqlx for SQLite, Postgres
// (including Supabase) and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// Store is a SQL-backed store.Store.
type Store struct {
	db      *sqlx.DB
	dialect *Dialect
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// Opener returns a store.Factory for dialect d.
func Opener(d *Dialect) store.Factory {
	return func(ctx context.Context, opts store.Options) (store.Store, error) {
		return Open(ctx, d, opts)
	}
}

// Open connects to the database, waiting for it to become reachable for up
// to opts.ConnectTimeout, and applies migrations.
func Open(ctx context.Context, d *Dialect, opts store.Options) (*Store, error) {
	dsn := SanitizeDSN(d.Name, opts.DSN)
	if d == SQLite && dsn == "" {
		dsn = ":memory:"
	}

	db, err := sqlx.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}

	if d == SQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := waitForDB(ctx, db, opts.ConnectTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Name, err)
	}

	if d == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", d.Name, err)
	}
	return s, nil
}

// waitForDB pings with exponential backoff so the server can start alongside
// a database container that is still booting.
func waitForDB(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = timeout
	if timeout <= 0 {
		b.MaxElapsedTime = time.Nanosecond
	}
	return backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(b, ctx))
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for diagnostics.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// insert executes an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.dialect.Returning {
		var id int64
		if err := s.db.QueryRowxContext(ctx, s.q(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// exec runs an UPDATE or DELETE and maps zero affected rows to ErrNotFound.
func (s *Store) exec(ctx context.Context, what, query string, args ...interface{}) error {
	n, err := s.affected(ctx, what, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// affected runs a statement and returns the number of matched rows.
func (s *Store) affected(ctx context.Context, what, query string, args ...interface{}) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", what, err)
	}
	return n, nil
}

func (s *Store) get(ctx context.Context, dest interface{}, what, query string, args ...interface{}) error {
	if err := s.db.GetContext(ctx, dest, s.q(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Admin CRUD
// ---------------------------------------------------------------------------

const adminColumns = "id, username, password_hash, last_login_at, created_at"

// CreateAdmin inserts a new admin account. ID and CreatedAt are populated
// after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	admin.CreatedAt = s.now()

	id, err := s.insert(ctx,
		"INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)",
		admin.Username, admin.PasswordHash, admin.CreatedAt)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return fmt.Errorf("admin %q: %w", admin.Username, store.ErrDuplicate)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin by id.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	if err := s.get(ctx, &admin, "get admin", "SELECT "+adminColumns+" FROM admins WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAdminByUsername returns an admin by username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.get(ctx, &admin, "get admin by username", "SELECT "+adminColumns+" FROM admins WHERE username = ?", username); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// UpdateAdminPassword replaces an admin's password hash.
func (s *Store) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	return s.exec(ctx, "update admin password",
		"UPDATE admins SET password_hash = ? WHERE id = ?", passwordHash, id)
}

// UpdateAdminLastLogin sets the last_login_at timestamp for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, "update admin last login",
		"UPDATE admins SET last_login_at = ? WHERE id = ?", at.UTC(), id)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// CreateSession persists a new bearer session.
func (s *Store) CreateSession(ctx context.Context, sess *model.AdminSession) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO admin_sessions (token, admin_id, expires_at, created_at) VALUES (?, ?, ?, ?)"),
		sess.Token, sess.AdminID, sess.ExpiresAt.UTC(), sess.CreatedAt)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession looks up a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (*model.AdminSession, error) {
	var sess model.AdminSession
	if err := s.get(ctx, &sess, "get session",
		"SELECT token, admin_id, expires_at, created_at FROM admin_sessions WHERE token = ?", token); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession removes a session; missing tokens are ignored.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_sessions WHERE token = ?"), token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Featured songs
// ---------------------------------------------------------------------------

const songColumns = "id, video_id, title, artist, thumbnail, duration, is_active, display_order, created_at"

// CreateSong inserts a catalog entry.
func (s *Store) CreateSong(ctx context.Context, song *model.FeaturedSong) error {
	if song.CreatedAt.IsZero() {
		song.CreatedAt = s.now()
	}
	id, err := s.insert(ctx,
		`INSERT INTO featured_songs
		(video_id, title, artist, thumbnail, duration, is_active, display_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		song.VideoID, song.Title, song.Artist, song.Thumbnail, song.Duration,
		song.IsActive, song.DisplayOrder, song.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert featured song: %w", err)
	}
	song.ID = id
	return nil
}

// GetSong returns a catalog entry by id.
func (s *Store) GetSong(ctx context.Context, id int64) (*model.FeaturedSong, error) {
	var song model.FeaturedSong
	if err := s.get(ctx, &song, "get featured song", "SELECT "+songColumns+" FROM featured_songs WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &song, nil
}

// ListSongs returns catalog entries in presentation order.
func (s *Store) ListSongs(ctx context.Context, activeOnly bool) ([]model.FeaturedSong, error) {
	query := "SELECT " + songColumns + " FROM featured_songs"
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY display_order ASC, created_at DESC, id DESC"

	songs := []model.FeaturedSong{}
	if err := s.db.SelectContext(ctx, &songs, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list featured songs: %w", err)
	}
	return songs, nil
}

// DeleteSong hard-deletes a catalog entry.
func (s *Store) DeleteSong(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete featured song", "DELETE FROM featured_songs WHERE id = ?", id)
}

// UpdateSongOrder sets the display order of a catalog entry.
func (s *Store) UpdateSongOrder(ctx context.Context, id int64, order int) error {
	return s.exec(ctx, "update song order", "UPDATE featured_songs SET display_order = ? WHERE id = ?", order, id)
}

// UpdateSongActive sets the visibility of a catalog entry.
func (s *Store) UpdateSongActive(ctx context.Context, id int64, active bool) error {
	return s.exec(ctx, "update song status", "UPDATE featured_songs SET is_active = ? WHERE id = ?", active, id)
}

// ---------------------------------------------------------------------------
// Withdrawals
// ---------------------------------------------------------------------------

const withdrawColumns = "id, user_id, amount, wallet_address, status, created_at, processed_at"

// CreateWithdraw inserts a withdrawal request.
func (s *Store) CreateWithdraw(ctx context.Context, req *model.WithdrawRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	id, err := s.insert(ctx,
		`INSERT INTO withdraw_requests (user_id, amount, wallet_address, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.UserID, req.Amount, req.WalletAddress, req.Status, req.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert withdraw request: %w", err)
	}
	req.ID = id
	return nil
}

// GetWithdraw returns a withdrawal request by id.
func (s *Store) GetWithdraw(ctx context.Context, id int64) (*model.WithdrawRequest, error) {
	var req model.WithdrawRequest
	if err := s.get(ctx, &req, "get withdraw request", "SELECT "+withdrawColumns+" FROM withdraw_requests WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListWithdraws returns withdrawal requests newest first.
func (s *Store) ListWithdraws(ctx context.Context, userID string) ([]model.WithdrawRequest, error) {
	query := "SELECT " + withdrawColumns + " FROM withdraw_requests"
	var args []interface{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	reqs := []model.WithdrawRequest{}
	if err := s.db.SelectContext(ctx, &reqs, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list withdraw requests: %w", err)
	}
	return reqs, nil
}

// DecideWithdraw records an admin decision. The pending guard lives in the
// WHERE clause so two racing decisions cannot both leave pending.
func (s *Store) DecideWithdraw(ctx context.Context, id int64, status string, processedAt time.Time) (bool, error) {
	at := processedAt.UTC()
	n, err := s.affected(ctx, "decide withdraw",
		"UPDATE withdraw_requests SET status = ?, processed_at = ? WHERE id = ? AND status = ?",
		status, at, id, model.WithdrawPending)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	n, err = s.affected(ctx, "restamp withdraw",
		"UPDATE withdraw_requests SET processed_at = ? WHERE id = ? AND status = ?", at, id, status)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.GetWithdraw(ctx, id); err != nil {
		return false, err
	}
	return false, store.ErrStatusConflict
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSettings returns every stored setting.
func (s *Store) GetSettings(ctx context.Context) (map[string]string, error) {
	var rows []model.AdminSetting
	if err := s.db.SelectContext(ctx, &rows, "SELECT setting_key, setting_value FROM admin_settings"); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SetSettings upserts all values in one transaction.
func (s *Store) SetSettings(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	stmt := tx.Rebind(s.dialect.upsertSetting)
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, stmt, k, v, now); err != nil {
			return fmt.Errorf("upsert setting %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Wallets
// ---------------------------------------------------------------------------

const walletColumns = "user_id, balance, total_earnings, songs_played, updated_at"

// GetWallet returns a user's wallet, or a zero wallet if none exists yet.
func (s *Store) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	var w model.Wallet
	err := s.get(ctx, &w, "get wallet", "SELECT "+walletColumns+" FROM user_wallets WHERE user_id = ?", userID)
	if errors.Is(err, store.ErrNotFound) {
		return &model.Wallet{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditWallet adds a reward to a wallet, creating it on first use.
func (s *Store) CreditWallet(ctx context.Context, userID string, amount, songs int64) (*model.Wallet, error) {
	if _, err := s.db.ExecContext(ctx, s.q(s.dialect.creditWallet), userID, amount, amount, songs, s.now()); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	return s.GetWallet(ctx, userID)
}

// DebitWallet subtracts amount if the balance covers it. The guard lives in
// the UPDATE so concurrent debits cannot overdraw.
func (s *Store) DebitWallet(ctx context.Context, userID string, amount int64) (*model.Wallet, error) {
	err := s.exec(ctx, "debit wallet",
		"UPDATE user_wallets SET balance = balance - ?, updated_at = ? WHERE user_id = ? AND balance >= ?",
		amount, s.now(), userID, amount)
	if errors.Is(err, store.ErrNotFound) {
		return nil, store.ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}
	return s.GetWallet(ctx, userID)
}

// RefundWallet credits amount back to the balance only.
func (s *Store) RefundWallet(ctx context.Context, userID string, amount int64) (*model.Wallet, error) {
	if _, err := s.db.ExecContext(ctx, s.q(s.dialect.creditWallet), userID, amount, 0, 0, s.now()); err != nil {
		return nil, fmt.Errorf("refund wallet: %w", err)
	}
	return s.GetWallet(ctx, userID)
}
