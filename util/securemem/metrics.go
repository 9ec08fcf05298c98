package securemem

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSecureMemLockedBytes prometheus.Gauge
	prometheusSecureMemLiveBuffers prometheus.Gauge
	prometheusSecureMemFallbacks   prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSecureMemLockedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "securemem",
			Name:      "locked_bytes",
			Help:      "Number of bytes currently pinned with mlock",
		},
	)

	prometheusSecureMemLiveBuffers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "securemem",
			Name:      "live_buffers",
			Help:      "Number of arena buffers not yet freed",
		},
	)

	prometheusSecureMemFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "securemem",
			Name:      "fallbacks",
			Help:      "Number of allocations that fell back to unlocked memory",
		},
	)
}
