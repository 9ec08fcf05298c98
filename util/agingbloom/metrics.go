package agingbloom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBloomInserts   prometheus.Counter
	prometheusBloomRotations prometheus.Counter
	prometheusBloomQueries   prometheus.Gauge
	prometheusBloomPositives prometheus.Gauge
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBloomInserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "agingbloom",
			Name:      "inserts",
			Help:      "Number of keys inserted into the aging bloom filter",
		},
	)

	prometheusBloomRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "agingbloom",
			Name:      "rotations",
			Help:      "Number of generation rotations of the aging bloom filter",
		},
	)

	prometheusBloomQueries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "agingbloom",
			Name:      "queries",
			Help:      "Number of membership queries against the aging bloom filter",
		},
	)

	prometheusBloomPositives = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "agingbloom",
			Name:      "positives",
			Help:      "Number of positive membership answers from the aging bloom filter",
		},
	)
}
