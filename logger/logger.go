// logger/logger.go
/* Package logger wraps zap behind a small interface shared by every package in the module.
Levels are filtered twice: once against the LogLevel held by the wrapper, so SetLevel takes
effect immediately, and once by the zap core the wrapper was built with. */
package logger

import (
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the level of logging. Values match zapcore.Level so the two convert
// directly; LogLevelNone sits above every zap level.
type LogLevel int

const (
	LogLevelDebug  LogLevel = -1
	LogLevelInfo   LogLevel = 0
	LogLevelWarn   LogLevel = 1
	LogLevelError  LogLevel = 2
	LogLevelDPanic LogLevel = 3
	LogLevelPanic  LogLevel = 4
	LogLevelFatal  LogLevel = 5
	LogLevelNone   LogLevel = 6
)

// logLevelNames maps configuration strings to levels.
var logLevelNames = map[string]LogLevel{
	"LogLevelDebug":  LogLevelDebug,
	"LogLevelInfo":   LogLevelInfo,
	"LogLevelWarn":   LogLevelWarn,
	"LogLevelError":  LogLevelError,
	"LogLevelDPanic": LogLevelDPanic,
	"LogLevelPanic":  LogLevelPanic,
	"LogLevelFatal":  LogLevelFatal,
	"LogLevelNone":   LogLevelNone,
}

// ParseLogLevelFromString converts a configuration string such as "LogLevelInfo" to a LogLevel.
// Unknown names silence logging.
func ParseLogLevelFromString(levelStr string) LogLevel {
	if level, ok := logLevelNames[levelStr]; ok {
		return level
	}
	return LogLevelNone
}

// IsValidLogLevel reports whether levelStr is a name ParseLogLevelFromString understands.
func IsValidLogLevel(levelStr string) bool {
	_, ok := logLevelNames[levelStr]
	return ok
}

// LogLevelNames returns the accepted level names in sorted order.
func LogLevelNames() []string {
	names := make([]string, 0, len(logLevelNames))
	for name := range logLevelNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Logger is the structured logger used throughout the module.
type Logger interface {
	GetLogLevel() LogLevel
	SetLevel(level LogLevel)
	With(fields ...zapcore.Field) Logger
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	// Error logs msg and returns it as an error so call sites can log and return in one step.
	Error(msg string, fields ...zapcore.Field) error
	Panic(msg string, fields ...zapcore.Field)
	Fatal(msg string, fields ...zapcore.Field)

	LogRequestStart(event string, requestID string, method string, url string, headers map[string][]string)
	LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration)
	LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string)
	LogDownloadSaved(event string, resourceID string, filename string, location string, bytes int64, duration time.Duration)
}

type defaultLogger struct {
	logger   *zap.Logger
	logLevel LogLevel
}

// NewZapLogger wraps an existing zap logger. Messages below level are dropped before they
// reach zap.
func NewZapLogger(zapLogger *zap.Logger, level LogLevel) Logger {
	return &defaultLogger{
		logger:   zapLogger,
		logLevel: level,
	}
}

// NewNopLogger returns a Logger that discards everything written to it.
func NewNopLogger() Logger {
	return NewZapLogger(zap.NewNop(), LogLevelNone)
}

func (d *defaultLogger) enabled(level LogLevel) bool {
	return d.logLevel <= level
}

func (d *defaultLogger) GetLogLevel() LogLevel {
	return d.logLevel
}

func (d *defaultLogger) SetLevel(level LogLevel) {
	d.logLevel = level
}

// With returns a child logger that adds fields to every entry. The child keeps the
// parent's level at the time of the call.
func (d *defaultLogger) With(fields ...zapcore.Field) Logger {
	return NewZapLogger(d.logger.With(fields...), d.logLevel)
}

func (d *defaultLogger) Debug(msg string, fields ...zapcore.Field) {
	if d.enabled(LogLevelDebug) {
		d.logger.Debug(msg, fields...)
	}
}

func (d *defaultLogger) Info(msg string, fields ...zapcore.Field) {
	if d.enabled(LogLevelInfo) {
		d.logger.Info(msg, fields...)
	}
}

func (d *defaultLogger) Warn(msg string, fields ...zapcore.Field) {
	if d.enabled(LogLevelWarn) {
		d.logger.Warn(msg, fields...)
	}
}

func (d *defaultLogger) Error(msg string, fields ...zapcore.Field) error {
	if d.enabled(LogLevelError) {
		d.logger.Error(msg, fields...)
	}
	return errors.New(msg)
}

// Panic logs at panic level and then panics.
func (d *defaultLogger) Panic(msg string, fields ...zapcore.Field) {
	if d.enabled(LogLevelPanic) {
		d.logger.Panic(msg, fields...)
	}
}

// Fatal logs at fatal level and then calls os.Exit(1).
func (d *defaultLogger) Fatal(msg string, fields ...zapcore.Field) {
	if d.enabled(LogLevelFatal) {
		d.logger.Fatal(msg, fields...)
	}
}
