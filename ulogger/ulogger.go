// Package ulogger defines the logging contract used across the node and the
// backends behind it. The default backend is zerolog with a console writer;
// gocore remains available for deployments that feed its log socket.
package ulogger

// Logger is implemented by every logging backend. Implementations are safe
// for concurrent use. New derives a logger for a named subsystem, Duplicate
// clones the receiver with adjusted options.
type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

// New returns a logger for service using the backend selected by the
// "logger" config key, zerolog unless configured otherwise.
func New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.loggerType == "gocore" {
		return NewGoCoreLogger(service, options...)
	}

	return NewZeroLogger(service, options...)
}
