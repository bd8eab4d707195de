package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// remoteCalls counts persistence calls by table, operation and result.
	remoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebound_remote_calls_total",
		Help: "Persistence service calls by table, operation and result",
	}, []string{"table", "op", "result"})

	// remoteLatency tracks persistence call latency.
	remoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagebound_remote_call_duration_seconds",
		Help:    "Persistence service call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"op"})
)
