// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Metrics categories:
//   - HTTP: request counts and latency by chi route pattern
//   - Rewards: rewards issued and rupiah credited
//   - Withdrawals: requests by outcome
//   - Lookup: music lookups by source and result, circuit breaker state
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicreward_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicreward_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RewardsIssuedTotal counts server-attested rewards.
	RewardsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicreward_rewards_issued_total",
			Help: "Total number of listening rewards credited",
		},
	)

	// RewardAmountTotal sums the rupiah credited by rewards.
	RewardAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicreward_reward_amount_rupiah_total",
			Help: "Total rupiah credited through listening rewards",
		},
	)

	// ActivePlaySessions is the number of open server-side play sessions.
	ActivePlaySessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicreward_play_sessions_active",
			Help: "Number of open play sessions",
		},
	)

	// WithdrawRequestsTotal counts withdrawal events by outcome
	// (created, rejected_validation, insufficient_balance, approved, rejected).
	WithdrawRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicreward_withdraw_requests_total",
			Help: "Total number of withdrawal requests by outcome",
		},
		[]string{"outcome"},
	)

	// LookupRequestsTotal counts music lookups by operation, source and result.
	LookupRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicreward_lookup_requests_total",
			Help: "Total number of music lookups",
		},
		[]string{"operation", "source", "result"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "musicreward_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicreward_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
