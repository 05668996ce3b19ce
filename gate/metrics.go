package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counsellor_gate_decisions_total",
		Help: "Access gate decisions by outcome.",
	}, []string{"decision"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counsellor_gate_reconcile_duration_seconds",
		Help:    "Time spent confirming profile completion with the backend.",
		Buckets: prometheus.DefBuckets,
	})
)
