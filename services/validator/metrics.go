package validator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utxonet/chainstate/util"
)

var (
	prometheusValidatorHealth              prometheus.Counter
	prometheusValidatorValidateTransaction prometheus.Histogram
	prometheusValidatorInvalidTransactions prometheus.Counter
	prometheusValidatorResolveInputs       prometheus.Histogram
	prometheusValidatorVerifyScripts       prometheus.Histogram
	prometheusValidatorTransactionSize     prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusValidatorHealth = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "health",
			Help:      "Number of calls to the health endpoint of the validator service",
		},
	)

	prometheusValidatorValidateTransaction = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "validate_transaction",
			Help:      "Duration of full transaction validation runs",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusValidatorInvalidTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "invalid_transactions",
			Help:      "Number of transactions rejected by validation",
		},
	)

	prometheusValidatorResolveInputs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "resolve_inputs",
			Help:      "Duration of input coin resolution through the coins view",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusValidatorVerifyScripts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "verify_scripts",
			Help:      "Duration of script verification batches",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusValidatorTransactionSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chainstate",
			Subsystem: "validator",
			Name:      "transaction_size",
			Help:      "Size in bytes of transactions submitted for validation",
			Buckets:   util.MetricsBucketsSize,
		},
	)
}
