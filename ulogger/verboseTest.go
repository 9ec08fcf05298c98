package ulogger

import (
	"sync"
	"testing"
)

// VerboseTestLogger forwards log output to the test log, interleaved with
// the test's own t.Log output when running with -v.
type VerboseTestLogger struct {
	tb testing.TB
	mu sync.Mutex
}

func NewVerboseTestLogger(tb testing.TB) *VerboseTestLogger {
	return &VerboseTestLogger{tb: tb}
}

func (l *VerboseTestLogger) LogLevel() int { return 0 }

func (l *VerboseTestLogger) SetLogLevel(_ string) {}

func (l *VerboseTestLogger) New(_ string, _ ...Option) Logger { return l }

func (l *VerboseTestLogger) Duplicate(_ ...Option) Logger { return l }

func (l *VerboseTestLogger) logf(prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tb.Logf(prefix+format, args...)
}

func (l *VerboseTestLogger) Debugf(format string, args ...interface{}) {
	l.logf("[DEBUG] ", format, args...)
}

func (l *VerboseTestLogger) Infof(format string, args ...interface{}) {
	l.logf("[INFO] ", format, args...)
}

func (l *VerboseTestLogger) Warnf(format string, args ...interface{}) {
	l.logf("[WARN] ", format, args...)
}

func (l *VerboseTestLogger) Errorf(format string, args ...interface{}) {
	l.logf("[ERROR] ", format, args...)
}

func (l *VerboseTestLogger) Fatalf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tb.Fatalf("[FATAL] "+format, args...)
}
