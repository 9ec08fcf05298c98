package leveldb

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusCoinStoreGet        prometheus.Counter
	prometheusCoinStoreBatchWrite prometheus.Histogram
	prometheusCoinStoreBatchSize  prometheus.Histogram
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
			Subsystem: "leveldb",
			Name:      "get",
			Help:      "Number of coin get calls to leveldb",
		},
	)

	prometheusCoinStoreBatchWrite = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "leveldb",
			Name:      "batch_write",
			Help:      "Duration of coin batch writes to leveldb",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusCoinStoreBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "leveldb",
			Name:      "batch_size",
			Help:      "Number of entries per coin batch write to leveldb",
			Buckets:   util.MetricsBucketsSize,
		},
	)
}
