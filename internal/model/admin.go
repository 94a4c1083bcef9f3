package model

import "time"

// Admin is an operator account that can curate the catalog, adjudicate
// withdrawals and edit ad settings. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// AdminSession is an opaque bearer token issued on login.
type AdminSession struct {
	Token     string    `json:"token" db:"token"`
	AdminID   int64     `json:"adminId" db:"admin_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AdminSummary is the public projection of an Admin returned by the API.
type AdminSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public projection of a.
func (a *Admin) Summary() AdminSummary {
	return AdminSummary{ID: a.ID, Username: a.Username}
}
