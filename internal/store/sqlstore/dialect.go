package sqlstore

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect captures the per-database differences the store cares about.
type Dialect struct {
	// Name is the storage.driver value that selects this dialect.
	Name string
	// DriverName is the database/sql driver registered for it.
	DriverName string
	// Returning reports whether inserts must use RETURNING to obtain the id.
	Returning bool

	migrations    []string
	upsertSetting string
	creditWallet  string
	isDuplicate   func(error) bool
}

// SQLite uses the pure-Go modernc.org/sqlite driver.
var SQLite = &Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	migrations: sqliteMigrations,
	upsertSetting: `INSERT INTO admin_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`,
	creditWallet: `INSERT INTO user_wallets (user_id, balance, total_earnings, songs_played, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = user_wallets.balance + excluded.balance,
			total_earnings = user_wallets.total_earnings + excluded.total_earnings,
			songs_played = user_wallets.songs_played + excluded.songs_played,
			updated_at = excluded.updated_at`,
	isDuplicate: func(err error) bool {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

// Postgres uses pgx through its database/sql adapter. Supabase projects are
// reached through their Postgres connection string.
var Postgres = &Dialect{
	Name:          "postgres",
	DriverName:    "pgx",
	Returning:     true,
	migrations:    postgresMigrations,
	upsertSetting: SQLite.upsertSetting,
	creditWallet:  SQLite.creditWallet,
	isDuplicate: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

// MySQL uses go-sql-driver/mysql.
var MySQL = &Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	migrations: mysqlMigrations,
	upsertSetting: `INSERT INTO admin_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), updated_at = VALUES(updated_at)`,
	creditWallet: `INSERT INTO user_wallets (user_id, balance, total_earnings, songs_played, updated_at) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			balance = balance + VALUES(balance),
			total_earnings = total_earnings + VALUES(total_earnings),
			songs_played = songs_played + VALUES(songs_played),
			updated_at = VALUES(updated_at)`,
	isDuplicate: func(err error) bool {
		var myErr *mysqldriver.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	},
}

// DialectFor returns the dialect for a storage.driver value.
func DialectFor(name string) (*Dialect, bool) {
	switch name {
	case SQLite.Name:
		return SQLite, true
	case Postgres.Name:
		return Postgres, true
	case MySQL.Name:
		return MySQL, true
	}
	return nil, false
}
