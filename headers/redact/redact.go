// headers/redact/redact.go
package redact

import (
	"net/http"
)

const redacted = "REDACTED"

// sensitiveKeys lists canonical header names whose values never appear in logs when
// redaction is enabled.
var sensitiveKeys = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
	"Accesstoken":         true,
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
// Header names are matched case-insensitively.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData && sensitiveKeys[http.CanonicalHeaderKey(key)] {
		return redacted
	}
	return value
}

// RedactHeaders returns a copy of headers with sensitive values replaced.
func RedactHeaders(hideSensitiveData bool, headers http.Header) map[string][]string {
	out := make(map[string][]string, len(headers))
	for name, values := range headers {
		copied := make([]string, len(values))
		for i, value := range values {
			copied[i] = RedactSensitiveHeaderData(hideSensitiveData, name, value)
		}
		out[name] = copied
	}
	return out
}
