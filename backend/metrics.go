package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "counsellor_backend_request_duration_seconds",
	Help:    "Latency of calls to the counsellor backend by endpoint and outcome",
	Buckets: prometheus.DefBuckets,
}, []string{"endpoint", "outcome"})
