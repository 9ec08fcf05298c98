package ulogger

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// TestingT is the slice of testing.T this package needs, kept narrow so the
// logger also works under testify's mock T.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Logf(format string, args ...any)
}

type tHelper = interface {
	Helper()
}

// ErrorTestLogger surfaces Errorf and Fatalf calls on the test. Components
// under test should never error-log on a clean path; wiring this logger in
// and checking the cancel hook catches the ones that do.
type ErrorTestLogger struct {
	t                TestingT
	skipCancelOnFail atomic.Bool
	cancelFn         func()
	shutdown         atomic.Bool
}

func NewErrorTestLogger(t TestingT, cancelFn ...func()) *ErrorTestLogger {
	l := &ErrorTestLogger{t: t}
	if len(cancelFn) > 0 {
		l.cancelFn = cancelFn[0]
	}

	return l
}

func (l *ErrorTestLogger) SetCancelFn(cancelFn func()) {
	l.cancelFn = cancelFn
}

func (l *ErrorTestLogger) SkipCancelOnFail(skip bool) {
	l.helper()
	l.skipCancelOnFail.Store(skip)
}

// Shutdown stops the logger touching testing.T. Call it before test cleanup
// so a late log line from a background goroutine cannot race the test's end.
func (l *ErrorTestLogger) Shutdown() {
	l.shutdown.Store(true)
}

func (l *ErrorTestLogger) helper() {
	if h, ok := l.t.(tHelper); ok {
		h.Helper()
	}
}

func (l *ErrorTestLogger) LogLevel() int { return 0 }

func (l *ErrorTestLogger) SetLogLevel(_ string) {}

func (l *ErrorTestLogger) New(_ string, _ ...Option) Logger {
	l.helper()
	return l
}

func (l *ErrorTestLogger) Duplicate(_ ...Option) Logger {
	l.helper()
	return l
}

func (l *ErrorTestLogger) Debugf(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Infof(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Warnf(format string, args ...interface{}) {}

func (l *ErrorTestLogger) Errorf(format string, args ...interface{}) {
	if l.shutdown.Load() {
		return
	}

	l.helper()

	_, file, line, _ := runtime.Caller(2)
	l.t.Logf(fmt.Sprintf("%s:%d: ERR_LEVEL %s ", file, line, format), args...)

	if l.skipCancelOnFail.Load() {
		return
	}

	if l.cancelFn != nil {
		l.cancelFn()
	}
}

func (l *ErrorTestLogger) Fatalf(format string, args ...interface{}) {
	if l.shutdown.Load() {
		return
	}

	l.helper()

	_, file, line, _ := runtime.Caller(2)
	l.t.Logf(fmt.Sprintf("%s:%d: FATAL_LEVEL %s ", file, line, format), args...)
	l.t.FailNow()
}
