package util

import "github.com/prometheus/client_golang/prometheus"

// Histogram bucket layouts shared by every service's metrics. All buckets
// are powers of two so latencies line up across dashboards.
var (
	// MetricsBucketsMicroSeconds covers 128us to 262ms.
	MetricsBucketsMicroSeconds = prometheus.ExponentialBuckets(128e-6, 2, 12)

	// MetricsBucketsMilliSeconds covers 1ms to 2s.
	MetricsBucketsMilliSeconds = prometheus.ExponentialBuckets(1e-3, 2, 12)

	// MetricsBucketsMilliLongSeconds covers 64ms to 131s.
	MetricsBucketsMilliLongSeconds = prometheus.ExponentialBuckets(64e-3, 2, 12)

	// MetricsBucketsSeconds covers 1s to 2048s.
	MetricsBucketsSeconds = prometheus.ExponentialBuckets(1, 2, 12)

	// MetricsBucketsSize covers 128 bytes to 256KB.
	MetricsBucketsSize = prometheus.ExponentialBuckets(128, 2, 12)
)
