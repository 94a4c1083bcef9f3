package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		last_login_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token TEXT PRIMARY KEY,
		admin_id INTEGER NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS featured_songs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 180,
		is_active INTEGER NOT NULL DEFAULT 1,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_featured_songs_order ON featured_songs(display_order, created_at)`,

	`CREATE TABLE IF NOT EXISTS withdraw_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL,
		wallet_address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	)`,

	`CREATE INDEX IF NOT EXISTS idx_withdraw_requests_user ON withdraw_requests(user_id)`,

	`CREATE TABLE IF NOT EXISTS admin_settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS user_wallets (
		user_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0,
		total_earnings INTEGER NOT NULL DEFAULT 0,
		songs_played INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token TEXT PRIMARY KEY,
		admin_id BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS featured_songs (
		id BIGSERIAL PRIMARY KEY,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 180,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_featured_songs_order ON featured_songs(display_order, created_at)`,

	`CREATE TABLE IF NOT EXISTS withdraw_requests (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		amount BIGINT NOT NULL,
		wallet_address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_withdraw_requests_user ON withdraw_requests(user_id)`,

	`CREATE TABLE IF NOT EXISTS admin_settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_wallets (
		user_id TEXT PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0,
		total_earnings BIGINT NOT NULL DEFAULT 0,
		songs_played BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		last_login_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token VARCHAR(128) PRIMARY KEY,
		admin_id BIGINT NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		FOREIGN KEY (admin_id) REFERENCES admins(id) ON DELETE CASCADE
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS featured_songs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		video_id VARCHAR(64) NOT NULL,
		title VARCHAR(512) NOT NULL,
		artist VARCHAR(255) NOT NULL,
		thumbnail TEXT NOT NULL,
		duration INT NOT NULL DEFAULT 180,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		display_order INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_featured_songs_order (display_order, created_at)
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS withdraw_requests (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(191) NOT NULL DEFAULT '',
		amount BIGINT NOT NULL,
		wallet_address TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME(6) NOT NULL,
		processed_at DATETIME(6) NULL,
		INDEX idx_withdraw_requests_user (user_id)
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS admin_settings (
		setting_key VARCHAR(191) PRIMARY KEY,
		setting_value MEDIUMTEXT NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_wallets (
		user_id VARCHAR(191) PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0,
		total_earnings BIGINT NOT NULL DEFAULT 0,
		songs_played BIGINT NOT NULL DEFAULT 0,
		updated_at DATETIME(6) NOT NULL
	) DEFAULT CHARSET=utf8mb4`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range s.dialect.migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			// Re-running an ADD COLUMN against an upgraded schema is a no-op.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
