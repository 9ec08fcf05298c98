package blockvalidation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusBlockValidationHealth                prometheus.Counter
	prometheusBlockValidationConnectBlock          prometheus.Histogram
	prometheusBlockValidationDisconnectBlock       prometheus.Histogram
	prometheusBlockValidationConnectedBlocks       prometheus.Counter
	prometheusBlockValidationDisconnectedBlocks    prometheus.Counter
	prometheusBlockValidationInvalidBlocks         prometheus.Counter
	prometheusBlockValidationDuplicateBlocks       prometheus.Counter
	prometheusBlockValidationConnectedTransactions prometheus.Counter
	prometheusBlockValidationTipMemory             prometheus.Gauge
	prometheusBlockValidationTipFlushes            prometheus.Counter
	prometheusBlockValidationTipFlushFailures      prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockValidationHealth = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "health",
			Help:      "Number of calls to the health endpoint of the block validation service",
		},
	)

	prometheusBlockValidationConnectBlock = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "connect_block",
			Help:      "Duration of block connects",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusBlockValidationDisconnectBlock = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "disconnect_block",
			Help:      "Duration of block disconnects",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusBlockValidationConnectedBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "connected_blocks",
			Help:      "Number of blocks connected to the coin set",
		},
	)

	prometheusBlockValidationDisconnectedBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "disconnected_blocks",
			Help:      "Number of blocks disconnected from the coin set",
		},
	)

	prometheusBlockValidationInvalidBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "invalid_blocks",
			Help:      "Number of blocks rejected as invalid",
		},
	)

	prometheusBlockValidationDuplicateBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "duplicate_blocks",
			Help:      "Number of connects short-circuited by the recent block cache",
		},
	)

	prometheusBlockValidationConnectedTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "connected_transactions",
			Help:      "Number of transactions confirmed by connected blocks",
		},
	)

	prometheusBlockValidationTipMemory = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "tip_memory_bytes",
			Help:      "Approximate memory held by the tip view",
		},
	)

	prometheusBlockValidationTipFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "tip_flushes",
			Help:      "Number of tip view flushes to the backing store",
		},
	)

	prometheusBlockValidationTipFlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "blockvalidation",
			Name:      "tip_flush_failures",
			Help:      "Number of tip view flushes that failed and will be retried",
		},
	)
}
