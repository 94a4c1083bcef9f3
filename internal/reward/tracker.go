package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/musicreward/musicreward/internal/metrics"
	"github.com/musicreward/musicreward/internal/store"
)

var (
	// ErrSessionNotFound is returned for unknown, ended or expired play ids.
	ErrSessionNotFound = errors.New("play session not found")
	// ErrInvalidToken is returned when a play token does not verify or
	// belongs to another session.
	ErrInvalidToken = errors.New("invalid play token")
	// ErrInvalidPlay is returned when a play is started without a user or
	// video id.
	ErrInvalidPlay = errors.New("userId and videoId are required")
)

const playTokenTTL = 12 * time.Hour

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	Policy Policy
	// Secret signs play tokens (HS256).
	Secret []byte
	// MaxGap caps the time credited for a single heartbeat interval.
	MaxGap time.Duration
	// IdleTimeout is how long a session survives without heartbeats.
	IdleTimeout time.Duration
}

// PlaySession is returned when a play starts.
type PlaySession struct {
	PlayID           string `json:"playId"`
	Token            string `json:"token"`
	ThresholdSeconds int    `json:"thresholdSeconds"`
	Amount           int64  `json:"amount"`
}

// HeartbeatResult reports a session after a heartbeat.
type HeartbeatResult struct {
	ElapsedSeconds int   `json:"elapsedSeconds"`
	State          State `json:"state"`
	Rewarded       bool  `json:"rewarded"`
	Amount         int64 `json:"amount"`
	Balance        int64 `json:"balance"`
}

type session struct {
	mu       sync.Mutex
	id       string
	userID   string
	timer    *Timer
	lastSeen time.Time
	ended    bool
}

// Tracker runs server-side play sessions. The client starts a play, then
// sends heartbeats while the track plays; the server measures elapsed time
// itself and credits the listener's wallet when a reward becomes due.
type Tracker struct {
	cfg     TrackerConfig
	wallets store.WalletStore
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	byUser   map[string]string // userID -> active playID
}

// NewTracker creates a Tracker crediting rewards to wallets.
func NewTracker(cfg TrackerConfig, wallets store.WalletStore, logger *slog.Logger) *Tracker {
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = 15 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:      cfg,
		wallets:  wallets,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
		byUser:   make(map[string]string),
	}
}

// Start opens a play session for userID listening to videoID. A listener
// has at most one session: starting a new play ends the previous one.
func (t *Tracker) Start(ctx context.Context, userID, videoID string) (*PlaySession, error) {
	userID = strings.TrimSpace(userID)
	videoID = strings.TrimSpace(videoID)
	if userID == "" || videoID == "" {
		return nil, ErrInvalidPlay
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate play id: %w", err)
	}
	now := t.now()
	token, err := t.issueToken(id.String(), userID, videoID, now)
	if err != nil {
		return nil, fmt.Errorf("sign play token: %w", err)
	}

	timer := NewTimer(t.cfg.Policy)
	timer.Play(videoID)
	s := &session{id: id.String(), userID: userID, timer: timer, lastSeen: now}

	t.mu.Lock()
	if prev, ok := t.sessions[t.byUser[userID]]; ok {
		t.removeLocked(prev)
	}
	t.sessions[s.id] = s
	t.byUser[userID] = s.id
	metrics.ActivePlaySessions.Set(float64(len(t.sessions)))
	t.mu.Unlock()

	return &PlaySession{
		PlayID:           s.id,
		Token:            token,
		ThresholdSeconds: t.cfg.Policy.ThresholdSeconds,
		Amount:           t.cfg.Policy.Amount,
	}, nil
}

// Heartbeat credits the time since the previous heartbeat, capped at
// MaxGap, if the session was playing, then applies the client's playing
// flag. Due rewards are credited to the wallet before returning.
func (t *Tracker) Heartbeat(ctx context.Context, playID, token string, playing bool) (*HeartbeatResult, error) {
	s, err := t.lookup(playID, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, ErrSessionNotFound
	}

	now := t.now()
	gap := now.Sub(s.lastSeen)
	if gap > t.cfg.MaxGap {
		gap = t.cfg.MaxGap
	}
	s.lastSeen = now

	rewards := s.timer.Advance(gap)
	if playing {
		s.timer.Resume()
	} else {
		s.timer.Pause()
	}

	result := &HeartbeatResult{
		ElapsedSeconds: int(s.timer.Elapsed() / time.Second),
		State:          s.timer.State(),
	}

	for _, r := range rewards {
		var songs int64
		if r.Completed {
			songs = 1
		}
		wallet, err := t.wallets.CreditWallet(ctx, s.userID, r.Amount, songs)
		if err != nil {
			return nil, fmt.Errorf("credit reward: %w", err)
		}
		result.Rewarded = true
		result.Amount += r.Amount
		result.Balance = wallet.Balance

		metrics.RewardsIssuedTotal.Inc()
		metrics.RewardAmountTotal.Add(float64(r.Amount))
		t.logger.Info("reward credited", "play_id", s.id, "user_id", s.userID, "video_id", r.VideoID, "amount", r.Amount)
	}

	if !result.Rewarded {
		wallet, err := t.wallets.GetWallet(ctx, s.userID)
		if err != nil {
			return nil, fmt.Errorf("get wallet: %w", err)
		}
		result.Balance = wallet.Balance
	}
	return result, nil
}

// End closes the session token was issued for. Ending a session that is
// already gone is not an error; a token for another play is.
func (t *Tracker) End(playID, token string) error {
	s, err := t.lookup(playID, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.removeLocked(s)
	metrics.ActivePlaySessions.Set(float64(len(t.sessions)))
	t.mu.Unlock()
	return nil
}

// removeLocked drops s from the tracker. t.mu must be held.
func (t *Tracker) removeLocked(s *session) {
	delete(t.sessions, s.id)
	if t.byUser[s.userID] == s.id {
		delete(t.byUser, s.userID)
	}
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// Active returns the number of open sessions.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sweep drops sessions idle for longer than IdleTimeout and returns how many
// were removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.cfg.IdleTimeout)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for _, s := range t.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			t.removeLocked(s)
			removed++
		}
	}
	metrics.ActivePlaySessions.Set(float64(len(t.sessions)))
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				t.logger.Debug("swept idle play sessions", "count", n)
			}
		}
	}
}

func (t *Tracker) lookup(playID, token string) (*session, error) {
	claims, err := t.parseToken(token)
	if err != nil || claims.PlayID != playID {
		return nil, ErrInvalidToken
	}

	t.mu.Lock()
	s, ok := t.sessions[playID]
	t.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.userID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return s, nil
}

type playClaims struct {
	PlayID  string `json:"play_id"`
	UserID  string `json:"user_id"`
	VideoID string `json:"video_id"`
	jwt.RegisteredClaims
}

func (t *Tracker) issueToken(playID, userID, videoID string, now time.Time) (string, error) {
	claims := playClaims{
		PlayID:  playID,
		UserID:  userID,
		VideoID: videoID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(playTokenTTL)),
			Issuer:    "musicreward",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.Secret)
}

func (t *Tracker) parseToken(tokenStr string) (*playClaims, error) {
	claims := &playClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.cfg.Secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
