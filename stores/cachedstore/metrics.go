package cachedstore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusCachedStoreGet       prometheus.Counter
	prometheusCachedStoreMiss      prometheus.Counter
	prometheusCachedStoreFlush     prometheus.Histogram
	prometheusCachedStoreFlushSize prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCachedStoreGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "cachedstore",
			Name:      "get",
			Help:      "Number of coin lookups served by the cache layer",
		},
	)

	prometheusCachedStoreMiss = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "cachedstore",
			Name:      "miss",
			Help:      "Number of coin lookups that fell through to the parent",
		},
	)

	prometheusCachedStoreFlush = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "cachedstore",
			Name:      "flush",
			Help:      "Duration of cache layer flushes to the parent",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusCachedStoreFlushSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "cachedstore",
			Name:      "flush_size",
			Help:      "Number of entries per cache layer flush",
			Buckets:   util.MetricsBucketsSize,
		},
	)
}
