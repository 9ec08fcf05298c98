// Package tracing wraps service operations in gocore stat timing, optional
// prometheus observations and an optional log line. Stats nest through the
// context, so an operation started inside another operation hangs its stat
// off the caller's.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util"
)

type Options func(o *TraceOptions)

type TraceOptions struct {
	ParentStat *gocore.Stat
	Histogram  prometheus.Histogram
	Counter    prometheus.Counter
	Logger     ulogger.Logger
	LogMessage string
	LogArgs    []interface{}
}

// WithParentStat roots the operation's stat under stat instead of whatever
// parent the context carries.
func WithParentStat(stat *gocore.Stat) Options {
	return func(o *TraceOptions) {
		o.ParentStat = stat
	}
}

// WithHistogram sets the prometheus histogram observed when the operation
// finishes.
func WithHistogram(histogram prometheus.Histogram) Options {
	return func(o *TraceOptions) {
		o.Histogram = histogram
	}
}

// WithCounter sets the prometheus counter incremented when the operation
// finishes.
func WithCounter(counter prometheus.Counter) Options {
	return func(o *TraceOptions) {
		o.Counter = counter
	}
}

// WithLogMessage logs the formatted message when the operation starts and
// again with the elapsed time when it finishes. Meant for service entry
// points, not inner functions.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(o *TraceOptions) {
		o.Logger = logger
		o.LogMessage = format
		o.LogArgs = args
	}
}

// Start begins a timed operation and returns the derived context, the
// operation's stat and a finisher to defer.
func Start(ctx context.Context, name string, setOptions ...Options) (context.Context, *gocore.Stat, func()) {
	options := &TraceOptions{}
	for _, opt := range setOptions {
		opt(options)
	}

	var (
		start int64
		stat  *gocore.Stat
	)

	if options.ParentStat != nil {
		start, stat, ctx = util.NewStatFromContext(ctx, name, options.ParentStat)
	} else {
		start, stat, ctx = util.StartStatFromContext(ctx, name)
	}

	if options.Logger != nil && options.LogMessage != "" {
		options.Logger.Infof(options.LogMessage, options.LogArgs...)
	}

	return ctx, stat, func() {
		stat.AddTime(start)

		elapsed := time.Duration(gocore.CurrentNanos() - start)

		if options.Histogram != nil {
			options.Histogram.Observe(elapsed.Seconds())
		}

		if options.Counter != nil {
			options.Counter.Inc()
		}

		if options.Logger != nil && options.LogMessage != "" {
			done := fmt.Sprintf(" DONE in %s", elapsed)
			options.Logger.Infof(options.LogMessage+done, options.LogArgs...)
		}
	}
}
