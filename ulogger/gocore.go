package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger adapts gocore's logger to the Logger interface. gocore fixes
// the level at construction, so SetLogLevel is a no-op.
type GoCoreLogger struct {
	*gocore.Logger
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "chainstate"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	level := gocore.NewLogLevelFromString(opts.logLevel)

	return &GoCoreLogger{Logger: gocore.Log(service, level), skipFrame: opts.skip}
}

// New derives a logger for another service at the receiver's level.
func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{Logger: gocore.Log(service, g.Logger.GetLogLevel()), skipFrame: opts.skip}
}

// Duplicate clones the logger, applying any non-default option overrides.
func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	clone := &GoCoreLogger{Logger: g.Logger, skipFrame: g.skipFrame}

	defaults := DefaultOptions()

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.logLevel != defaults.logLevel {
		clone.SetLogLevel(opts.logLevel)
	}

	if opts.skip != defaults.skip {
		clone.skipFrame = opts.skip
	}

	return clone
}

func (g *GoCoreLogger) SetLogLevel(_ string) {}
