// Package metrics defines the Prometheus collectors of the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle metrics
var (
	// SessionsActive tracks the number of sessions currently in play on
	// this instance.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tower_sessions_active",
			Help: "Number of active wagering sessions on this instance",
		},
	)

	// SessionsStartedTotal counts sessions started by difficulty.
	SessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tower_sessions_started_total",
			Help: "Total sessions started by difficulty",
		},
		[]string{"difficulty"},
	)

	// SettlementsTotal counts settlements by result and trigger
	// (action, timeout, sweep, error).
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tower_settlements_total",
			Help: "Total settlements by result and trigger",
		},
		[]string{"result", "trigger"},
	)

	// StaleTimersIgnoredTotal counts fired timers discarded by the token check.
	StaleTimersIgnoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_stale_timers_ignored_total",
			Help: "Total fired timers ignored because their session token was stale",
		},
	)
)

// Settlement persistence metrics
var (
	// OutcomeRetriesTotal counts retried outcome writes.
	OutcomeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_outcome_retries_total",
			Help: "Total retried outcome persistence attempts",
		},
	)

	// OutcomeFailuresTotal counts outcome writes that exhausted all retries.
	OutcomeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_outcome_failures_total",
			Help: "Total outcome writes abandoned after exhausting retries",
		},
	)
)

// Ledger metrics
var (
	// BalanceCacheHits counts balance reads served from the cache.
	BalanceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_balance_cache_hits_total",
			Help: "Total balance reads served from the Redis cache",
		},
	)

	// BalanceCacheMisses counts balance reads that fell through to Postgres.
	BalanceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_balance_cache_misses_total",
			Help: "Total balance reads that fell through to the durable store",
		},
	)
)

// Sweep metrics
var (
	// SweepRunsTotal counts sweep passes executed by the leader.
	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_sweep_runs_total",
			Help: "Total stale-round sweep passes",
		},
	)

	// SweepReclaimedTotal counts abandoned rounds refunded by the sweep.
	SweepReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_sweep_reclaimed_total",
			Help: "Total abandoned rounds refunded by the sweep",
		},
	)

	// SweepSkippedTotal counts stale candidates skipped, labeled by reason.
	SweepSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tower_sweep_skipped_total",
			Help: "Total sweep candidates skipped by reason",
		},
		[]string{"reason"},
	)
)

// Presentation metrics
var (
	// DeliveryFailuresTotal counts render deliveries the presenter rejected.
	DeliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tower_delivery_failures_total",
			Help: "Total render deliveries that failed",
		},
	)

	// StreamClientsConnected tracks connected websocket stream clients.
	StreamClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tower_stream_clients_connected",
			Help: "Connected websocket stream clients",
		},
	)
)
