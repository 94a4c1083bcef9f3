package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// MinPasswordLength is the shortest admin password accepted.
const MinPasswordLength = 4

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("musicreward-dummy"), bcrypt.DefaultCost)

// SessionManager issues, validates and revokes admin bearer sessions.
type SessionManager struct {
	admins   store.AdminStore
	sessions store.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a SessionManager whose tokens live for ttl.
func NewSessionManager(admins store.AdminStore, sessions store.SessionStore, ttl time.Duration) *SessionManager {
	return &SessionManager{
		admins:   admins,
		sessions: sessions,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and starts a new session.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*model.AdminSession, *model.Admin, error) {
	admin, err := m.admins.GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, nil, err
	}
	now := m.now()
	sess := &model.AdminSession{
		Token:     token,
		AdminID:   admin.ID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.sessions.CreateSession(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	if err := m.admins.UpdateAdminLastLogin(ctx, admin.ID, now); err == nil {
		admin.LastLoginAt = &now
	}
	return sess, admin, nil
}

// Validate resolves a token to its admin. Unknown and expired tokens return
// ErrUnauthorized; expired sessions are deleted on sight.
func (m *SessionManager) Validate(ctx context.Context, token string) (*model.Admin, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	sess, err := m.sessions.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess.Expired(m.now()) {
		m.sessions.DeleteSession(ctx, token)
		return nil, ErrUnauthorized
	}

	admin, err := m.admins.GetAdmin(ctx, sess.AdminID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	return admin, nil
}

// Logout revokes a token. Revoking an unknown token is not an error.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.DeleteSession(ctx, token)
}

// CreateAdmin registers a new admin account.
func (m *SessionManager) CreateAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := m.admins.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// SetPassword replaces the password of an existing admin.
func (m *SessionManager) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	admin, err := m.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return m.admins.UpdateAdminPassword(ctx, admin.ID, hash)
}

// EnsureAdmin creates the bootstrap admin unless that username already
// exists. It reports whether an account was created.
func (m *SessionManager) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	_, err := m.admins.GetAdminByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if _, err := m.CreateAdmin(ctx, username, password); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// newToken returns 32 random bytes, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
