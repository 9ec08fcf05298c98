package sql

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusCoinStoreGet        prometheus.Counter
	prometheusCoinStoreBatchWrite prometheus.Histogram
	prometheusCoinStoreErrors     *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCoinStoreGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "sql",
			Name:      "coins_get",
			Help:      "Number of coin get calls done to sql",
		},
	)

	prometheusCoinStoreBatchWrite = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "sql",
			Name:      "coins_batch_write",
			Help:      "Duration of coin batch writes done to sql",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusCoinStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "sql",
			Name:      "coins_errors",
			Help:      "Number of coin store errors",
		},
		[]string{
			"function",
		},
	)
}
