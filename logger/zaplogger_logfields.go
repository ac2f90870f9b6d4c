// logger/zaplogger_logfields.go
package logger

import (
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LogRequestStart logs the initiation of an HTTP request, including the HTTP method, URL, and headers.
// Headers are expected to be redacted by the caller.
func (d *defaultLogger) LogRequestStart(event string, requestID string, method string, url string, headers map[string][]string) {
	if d.enabled(LogLevelInfo) {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("url", url),
			zap.Any("headers", headers),
		}
		d.logger.Info("HTTP request started", fields...)
	}
}

// LogRequestEnd logs the completion of an HTTP request, including the HTTP method, URL, status code, and duration.
func (d *defaultLogger) LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration) {
	if d.enabled(LogLevelInfo) {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		}
		d.logger.Info("HTTP request completed", fields...)
	}
}

// LogError logs an error that occurred while processing an HTTP request.
func (d *defaultLogger) LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string) {
	if d.enabled(LogLevelError) {
		errorMessage := ""
		if err != nil {
			errorMessage = err.Error()
		}

		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.String("status_message", serverStatusMessage),
			zap.String("error_message", errorMessage),
			zap.String("raw_response", rawResponse),
		}
		d.logger.Error("Error during HTTP request", fields...)
	}
}

// LogDownloadSaved logs a response body that was fully written to its destination.
func (d *defaultLogger) LogDownloadSaved(event string, resourceID string, filename string, location string, bytes int64, duration time.Duration) {
	if d.enabled(LogLevelInfo) {
		size := uint64(0)
		if bytes > 0 {
			size = uint64(bytes)
		}

		fields := []zap.Field{
			zap.String("event", event),
			zap.String("resource_id", resourceID),
			zap.String("filename", filename),
			zap.String("location", location),
			zap.Int64("bytes", bytes),
			zap.String("size", humanize.Bytes(size)),
			zap.Duration("duration", duration),
		}
		d.logger.Info("Download saved", fields...)
	}
}
