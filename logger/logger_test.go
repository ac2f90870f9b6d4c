// logger/logger_test.go
package logger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedLogger returns a defaultLogger writing into an in-memory observer.
func newObservedLogger(level LogLevel) (*defaultLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &defaultLogger{logger: zap.New(core), logLevel: level}, logs
}

// TestParseLogLevelFromString tests the conversion from string to LogLevel
func TestParseLogLevelFromString(t *testing.T) {
	tests := []struct {
		levelStr      string
		expectedLevel LogLevel
	}{
		{"LogLevelDebug", LogLevelDebug},
		{"LogLevelInfo", LogLevelInfo},
		{"LogLevelWarn", LogLevelWarn},
		{"LogLevelError", LogLevelError},
		{"LogLevelDPanic", LogLevelDPanic},
		{"LogLevelPanic", LogLevelPanic},
		{"LogLevelFatal", LogLevelFatal},
		{"LogLevelNone", LogLevelNone},
		{"Invalid", LogLevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.levelStr, func(t *testing.T) {
			assert.Equal(t, tt.expectedLevel, ParseLogLevelFromString(tt.levelStr))
		})
	}
}

// TestDefaultLogger_SetLevel tests the SetLevel method of defaultLogger
func TestDefaultLogger_SetLevel(t *testing.T) {
	dLogger := &defaultLogger{logger: zap.NewNop()}

	dLogger.SetLevel(LogLevelWarn)
	assert.Equal(t, LogLevelWarn, dLogger.GetLogLevel())
}

// TestDefaultLogger_LevelFiltering verifies that messages below the configured level are dropped.
func TestDefaultLogger_LevelFiltering(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelWarn)

	dLogger.Debug("debug message")
	dLogger.Info("info message")
	dLogger.Warn("warn message")
	_ = dLogger.Error("error message")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn message", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "error message", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

// TestDefaultLogger_Error checks that Error both logs and returns the message as an error.
func TestDefaultLogger_Error(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelError)

	err := dLogger.Error("failed to open file", zap.String("path", "/tmp/x"))

	require.Error(t, err)
	assert.Equal(t, "failed to open file", err.Error())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/tmp/x", logs.All()[0].ContextMap()["path"])
}

// TestDefaultLogger_With tests that contextual fields are carried into subsequent entries.
func TestDefaultLogger_With(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelInfo)

	child := dLogger.With(zap.String("run_id", "abc"))
	child.Info("hello")

	assert.IsType(t, &defaultLogger{}, child)
	assert.Equal(t, LogLevelInfo, child.GetLogLevel())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["run_id"])
}

// TestNewNopLogger verifies the no-op logger is silent but still returns errors.
func TestNewNopLogger(t *testing.T) {
	log := NewNopLogger()

	assert.Equal(t, LogLevelNone, log.GetLogLevel())
	assert.NotPanics(t, func() { log.Info("ignored") })
	assert.EqualError(t, log.Error("still an error"), "still an error")
}

// TestIsValidLogLevel checks the accepted level names.
func TestIsValidLogLevel(t *testing.T) {
	for _, name := range LogLevelNames() {
		assert.True(t, IsValidLogLevel(name), name)
		assert.Equal(t, name != "LogLevelNone", ParseLogLevelFromString(name) != LogLevelNone, name)
	}
	assert.Len(t, LogLevelNames(), 8)
	assert.False(t, IsValidLogLevel("debug"))
	assert.False(t, IsValidLogLevel(""))
}

// TestNewZapLogger verifies an existing zap logger is wrapped with the requested level.
func TestNewZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core), LogLevelInfo)

	log.Debug("dropped")
	log.With(zap.String("run_id", "r1")).Info("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["run_id"])
}

// TestDefaultLogger_EventHelpers checks the structured fields written by the event helpers.
func TestDefaultLogger_EventHelpers(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelDebug)

	dLogger.LogRequestStart("download_start", "req-1", "GET", "https://example.com/f", map[string][]string{"User-Agent": {"ua"}})
	dLogger.LogRequestEnd("download_response", "GET", "https://example.com/f", 200, time.Second)
	dLogger.LogError("download_error", "GET", "https://example.com/f", 404, "404 Not Found", errors.New("boom"), "<html/>")
	dLogger.LogDownloadSaved("download_saved", "id-1", "a.txt", "/tmp/a.txt", 2048, time.Second)

	entries := logs.All()
	require.Len(t, entries, 4)

	start := entries[0].ContextMap()
	assert.Equal(t, "download_start", start["event"])
	assert.Equal(t, "req-1", start["request_id"])

	end := entries[1].ContextMap()
	assert.Equal(t, int64(200), end["status_code"])

	failure := entries[2].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", failure["error_message"])
	assert.Equal(t, "<html/>", failure["raw_response"])

	saved := entries[3].ContextMap()
	assert.Equal(t, int64(2048), saved["bytes"])
	assert.Equal(t, "2.0 kB", saved["size"])
	assert.Equal(t, "a.txt", saved["filename"])
}

// TestConvertToZapLevel verifies the mapping between LogLevel and zapcore.Level.
func TestConvertToZapLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zapcore.Level
	}{
		{LogLevelDebug, zap.DebugLevel},
		{LogLevelInfo, zap.InfoLevel},
		{LogLevelWarn, zap.WarnLevel},
		{LogLevelError, zap.ErrorLevel},
		{LogLevelDPanic, zap.DPanicLevel},
		{LogLevelPanic, zap.PanicLevel},
		{LogLevelFatal, zap.FatalLevel},
		{LogLevelNone, zap.FatalLevel},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("LogLevel %d", tc.level), func(t *testing.T) {
			assert.Equal(t, tc.expected, convertToZapLevel(tc.level))
		})
	}
}

// TestBuildLogger checks that BuildLogger honours the requested level for both encodings.
func TestBuildLogger(t *testing.T) {
	for _, encoding := range []string{LogOutputJSON, LogOutputConsole, "unknown"} {
		t.Run(encoding, func(t *testing.T) {
			log := BuildLogger(LogLevelWarn, encoding, " | ")

			require.NotNil(t, log)
			assert.Equal(t, LogLevelWarn, log.GetLogLevel())
		})
	}
}
