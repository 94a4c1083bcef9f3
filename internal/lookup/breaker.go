package lookup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/musicreward/musicreward/internal/metrics"
	"github.com/musicreward/musicreward/internal/model"
)

// Upstream is an external music source.
type Upstream interface {
	Enabled() bool
	Search(ctx context.Context, query string, limit int, regionCode string) ([]model.Song, error)
	Video(ctx context.Context, videoID string) (*model.Song, error)
}

// BreakerClient wraps an Upstream in a circuit breaker so a failing or
// quota-exhausted API is skipped quickly instead of being hit per request.
type BreakerClient struct {
	next Upstream
	cb   *gobreaker.CircuitBreaker[[]model.Song]
	name string
}

// NewBreakerClient wraps next. The circuit opens after five consecutive
// failures and probes again after timeout.
func NewBreakerClient(next Upstream, timeout time.Duration, logger *slog.Logger) *BreakerClient {
	const name = "youtube-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]model.Song](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing video or a cancelled caller says nothing about API health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrVideoNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &BreakerClient{next: next, cb: cb, name: name}
}

// Enabled reports whether the wrapped upstream is configured.
func (b *BreakerClient) Enabled() bool {
	return b.next.Enabled()
}

// Search runs next.Search through the breaker.
func (b *BreakerClient) Search(ctx context.Context, query string, limit int, regionCode string) ([]model.Song, error) {
	if !b.next.Enabled() {
		return nil, ErrDisabled
	}
	return b.cb.Execute(func() ([]model.Song, error) {
		return b.next.Search(ctx, query, limit, regionCode)
	})
}

// Video runs next.Video through the breaker.
func (b *BreakerClient) Video(ctx context.Context, videoID string) (*model.Song, error) {
	if !b.next.Enabled() {
		return nil, ErrDisabled
	}
	songs, err := b.cb.Execute(func() ([]model.Song, error) {
		song, err := b.next.Video(ctx, videoID)
		if err != nil {
			return nil, err
		}
		return []model.Song{*song}, nil
	})
	if err != nil {
		return nil, err
	}
	return &songs[0], nil
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
