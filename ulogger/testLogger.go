package ulogger

// TestLogger is a no-op logger for tests that do not care about log output.
// Use NewVerboseTestLogger to see the output instead.
type TestLogger struct{}

func (l TestLogger) LogLevel() int { return 0 }

func (l TestLogger) SetLogLevel(_ string) {}

func (l TestLogger) New(_ string, _ ...Option) Logger { return l }

func (l TestLogger) Duplicate(_ ...Option) Logger { return l }

func (l TestLogger) Debugf(format string, args ...interface{}) {}

func (l TestLogger) Infof(format string, args ...interface{}) {}

func (l TestLogger) Warnf(format string, args ...interface{}) {}

func (l TestLogger) Errorf(format string, args ...interface{}) {}

func (l TestLogger) Fatalf(format string, args ...interface{}) {}
