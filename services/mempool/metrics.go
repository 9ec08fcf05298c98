package mempool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusMempoolHealth               prometheus.Counter
	prometheusMempoolTryAdmit             prometheus.Histogram
	prometheusMempoolAdmitted             prometheus.Counter
	prometheusMempoolRejected             prometheus.Counter
	prometheusMempoolReplaced             prometheus.Counter
	prometheusMempoolEvicted              prometheus.Counter
	prometheusMempoolExpired              prometheus.Counter
	prometheusMempoolEntries              prometheus.Gauge
	prometheusMempoolBytes                prometheus.Gauge
	prometheusMempoolRollingMinFee        prometheus.Gauge
	prometheusMempoolDroppedNotifications prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusMempoolHealth = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "health",
			Help:      "Number of calls to the health endpoint of the mempool service",
		},
	)

	prometheusMempoolTryAdmit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "try_admit",
			Help:      "Duration of mempool admission attempts",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusMempoolAdmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "admitted_transactions",
			Help:      "Number of transactions admitted to the pool",
		},
	)

	prometheusMempoolRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "rejected_transactions",
			Help:      "Number of transactions the pool rejected",
		},
	)

	prometheusMempoolReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "replaced_transactions",
			Help:      "Number of entries removed by fee replacement",
		},
	)

	prometheusMempoolEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "evicted_transactions",
			Help:      "Number of entries evicted by the size limit",
		},
	)

	prometheusMempoolExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "expired_transactions",
			Help:      "Number of entries evicted by age",
		},
	)

	prometheusMempoolEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "entries",
			Help:      "Number of entries currently in the pool",
		},
	)

	prometheusMempoolBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "bytes",
			Help:      "Serialized size in bytes of all entries in the pool",
		},
	)

	prometheusMempoolRollingMinFee = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "rolling_min_fee",
			Help:      "Rolling minimum feerate to enter the pool in satoshis per byte",
		},
	)

	prometheusMempoolDroppedNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "mempool",
			Name:      "dropped_notifications",
			Help:      "Number of pool events dropped on full subscriber buffers",
		},
	)
}
