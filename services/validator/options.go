package validator

import (
	"github.com/utxonet/chainstate/util/checkqueue"
)

// Options modify a single validation call.
type Options struct {
	// SkipPolicyChecks drops the node-local policy rules (size, dust,
	// sigops limit), leaving only consensus rules. Block validation sets
	// it: a mined transaction is not subject to relay policy.
	SkipPolicyChecks bool

	// SkipScriptChecks skips script verification entirely.
	SkipScriptChecks bool

	// AllowCoinbase admits a coinbase transaction, which is only valid
	// inside a block.
	AllowCoinbase bool

	// View overrides the validator's default coins view for this call.
	View CoinsView

	// ScriptControl, when set, receives the script jobs instead of a
	// per-call batch. The caller joins the batch itself.
	ScriptControl *checkqueue.ControlHandle[*ScriptJob]
}

// Option is a function that sets some option on the Options struct.
type Option func(*Options)

// NewDefaultOptions returns the options of a plain admission run: all
// checks on, default view, per-call script batch.
func NewDefaultOptions() *Options {
	return &Options{}
}

// ProcessOptions applies opts over the defaults.
func ProcessOptions(opts ...Option) *Options {
	options := NewDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithSkipPolicyChecks is an option that drops policy rules, keeping only
// consensus rules.
func WithSkipPolicyChecks(skip bool) Option {
	return func(o *Options) {
		o.SkipPolicyChecks = skip
	}
}

// WithSkipScriptChecks is an option that skips script verification.
func WithSkipScriptChecks(skip bool) Option {
	return func(o *Options) {
		o.SkipScriptChecks = skip
	}
}

// WithCoinbaseAllowed is an option that admits a coinbase transaction.
func WithCoinbaseAllowed(allowed bool) Option {
	return func(o *Options) {
		o.AllowCoinbase = allowed
	}
}

// WithCoinsView is an option that resolves inputs through view instead of
// the validator's default layer.
func WithCoinsView(view CoinsView) Option {
	return func(o *Options) {
		o.View = view
	}
}

// WithScriptControl is an option that adds script jobs to a caller-owned
// batch instead of waiting per call.
func WithScriptControl(control *checkqueue.ControlHandle[*ScriptJob]) Option {
	return func(o *Options) {
		o.ScriptControl = control
	}
}
