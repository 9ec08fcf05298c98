package checkqueue

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCheckQueueWorkers       prometheus.Gauge
	prometheusCheckQueueJobs          prometheus.Counter
	prometheusCheckQueueFailedBatches prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCheckQueueWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "checkqueue",
			Name:      "workers",
			Help:      "Number of worker goroutines processing checks",
		},
	)

	prometheusCheckQueueJobs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "checkqueue",
			Name:      "jobs",
			Help:      "Number of check jobs queued",
		},
	)

	prometheusCheckQueueFailedBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "checkqueue",
			Name:      "failed_batches",
			Help:      "Number of batches that contained at least one failed check",
		},
	)
}
