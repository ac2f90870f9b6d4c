// headers/headers_test.go
package headers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSetRequestHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	headerHandler := NewHeaderHandler(req, mocklogger.NewMockLogger())

	headerHandler.SetRequestHeaders("go-share-downloader/1.0.0")

	assert.Equal(t, "go-share-downloader/1.0.0", req.Header.Get("User-Agent"))
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
}

func TestLogHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Cookie", "session=secret")
	req.Header.Set("User-Agent", "agent")

	mockLog := mocklogger.NewMockLogger()
	mockLog.SetLevel(logger.LogLevelDebug)
	mockLog.On("Debug", "HTTP Request Headers", mock.Anything).Once()

	NewHeaderHandler(req, mockLog).LogHeaders(true)

	mockLog.AssertExpectations(t)
}

func TestLogHeaders_SkippedAboveDebug(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	mockLog := mocklogger.NewMockLogger()
	mockLog.SetLevel(logger.LogLevelInfo)

	NewHeaderHandler(req, mockLog).LogHeaders(true)

	mockLog.AssertNotCalled(t, "Debug", mock.Anything, mock.Anything)
}

func TestHeadersToString(t *testing.T) {
	headers := http.Header{
		"User-Agent": {"agent"},
		"Accept":     {"text/html", "*/*"},
	}

	assert.Equal(t, "Accept: text/html, */*\nUser-Agent: agent", HeadersToString(headers))
}
