package ulogger

import (
	"bytes"
	"testing"

	"github.com/ordishs/gocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToZerolog(t *testing.T) {
	logger := New("test")
	require.NotNil(t, logger)

	_, ok := logger.(*ZLoggerWrapper)
	assert.True(t, ok)
}

func TestNewGoCore(t *testing.T) {
	logger := New("test", WithLoggerType("gocore"))
	require.NotNil(t, logger)

	_, ok := logger.(*GoCoreLogger)
	assert.True(t, ok)
}

func TestZeroLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZeroLogger("test", WithWriter(&buf), WithLevel("WARN"))

	assert.Equal(t, int(gocore.WARN), logger.LogLevel())

	logger.SetLogLevel("DEBUG")
	assert.Equal(t, int(gocore.DEBUG), logger.LogLevel())

	logger.SetLogLevel("not-a-level")
	assert.Equal(t, int(gocore.INFO), logger.LogLevel())
}

func TestZeroLoggerNewKeepsLevel(t *testing.T) {
	var buf bytes.Buffer

	parent := NewZeroLogger("parent", WithWriter(&buf), WithLevel("ERROR"))

	child := parent.New("child")
	require.NotNil(t, child)
	assert.Equal(t, int(gocore.ERROR), child.LogLevel())
}

func TestZeroLoggerDuplicateOverridesLevel(t *testing.T) {
	var buf bytes.Buffer

	parent := NewZeroLogger("parent", WithWriter(&buf), WithLevel("INFO"))

	dup := parent.Duplicate(WithLevel("DEBUG"))
	require.NotNil(t, dup)
	assert.Equal(t, int(gocore.DEBUG), dup.LogLevel())

	// parent keeps its own level
	assert.Equal(t, int(gocore.INFO), parent.LogLevel())
}

func TestTestLoggerIsNoOp(t *testing.T) {
	var logger Logger = TestLogger{}

	logger.Debugf("ignored %d", 1)
	logger.Errorf("ignored %d", 2)

	assert.Equal(t, 0, logger.LogLevel())
	assert.Equal(t, logger, logger.New("other"))
	assert.Equal(t, logger, logger.Duplicate())
}

func TestVerboseTestLogger(t *testing.T) {
	logger := NewVerboseTestLogger(t)

	logger.Debugf("debug %s", "message")
	logger.Infof("info %s", "message")
	logger.Warnf("warn %s", "message")

	assert.Equal(t, 0, logger.LogLevel())
}
