// headers/headers.go
package headers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-share-downloader/headers/redact"
	"github.com/deploymenttheory/go-share-downloader/logger"
	"go.uber.org/zap"
)

// HeaderHandler is responsible for managing and setting headers on download requests.
type HeaderHandler struct {
	req *http.Request // The http.Request for which headers are being managed
	log logger.Logger // The logger to use for logging headers
}

// NewHeaderHandler creates a new instance of HeaderHandler for a given http.Request and logger.
func NewHeaderHandler(req *http.Request, log logger.Logger) *HeaderHandler {
	return &HeaderHandler{
		req: req,
		log: log,
	}
}

// SetAccept sets the Accept header for the request.
func (h *HeaderHandler) SetAccept(acceptHeader string) {
	h.req.Header.Set("Accept", acceptHeader)
}

// SetUserAgent sets the User-Agent header for the request.
func (h *HeaderHandler) SetUserAgent(userAgent string) {
	h.req.Header.Set("User-Agent", userAgent)
}

// SetRequestHeaders sets the headers every download request carries.
func (h *HeaderHandler) SetRequestHeaders(userAgent string) {
	h.SetUserAgent(userAgent)
	h.SetAccept("*/*")
}

// RedactedHeaders returns a copy of the request headers suitable for logging.
func (h *HeaderHandler) RedactedHeaders(hideSensitiveData bool) map[string][]string {
	return redact.RedactHeaders(hideSensitiveData, h.req.Header)
}

// LogHeaders prints all the current headers in the http.Request at debug level,
// redacting sensitive values when hideSensitiveData is set.
func (h *HeaderHandler) LogHeaders(hideSensitiveData bool) {
	if h.log.GetLogLevel() <= logger.LogLevelDebug {
		redactedHeaders := http.Header(h.RedactedHeaders(hideSensitiveData))
		h.log.Debug("HTTP Request Headers", zap.String("Headers", HeadersToString(redactedHeaders)))
	}
}

// HeadersToString converts a http.Header to a string for logging, one header per line,
// sorted by name.
func HeadersToString(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headerStrings := make([]string, 0, len(names))
	for _, name := range names {
		headerStrings = append(headerStrings, fmt.Sprintf("%s: %s", name, strings.Join(headers[name], ", ")))
	}
	return strings.Join(headerStrings, "\n")
}
