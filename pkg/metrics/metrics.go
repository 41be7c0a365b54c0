package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dishpatch_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Registrations counts account registrations by result (success|duplicate|failure).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dishpatch_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"result"},
	)

	// TokenConsumptions counts verification and reset token redemptions
	// by flow (verify|reset) and result (success|invalid|expired).
	TokenConsumptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dishpatch_token_consumptions_total",
			Help: "Total number of single-use token redemption attempts",
		},
		[]string{"flow", "result"},
	)

	// EmailsSent counts outbound emails by kind (verification|reset) and result.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dishpatch_emails_sent_total",
			Help: "Total number of outbound email deliveries",
		},
		[]string{"kind", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dishpatch_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
