// cookiejar/cookiejar.go

/* The cookiejar package provides utility functions for managing cookies within the download
client: initialization of a cookie jar (share links frequently hand out session and
download-warning cookies across redirects), application of user supplied cookies, redaction
of sensitive cookies for logging, and parsing of cookies from HTTP headers. */

package cookiejar

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// sensitiveCookiePrefixes lists cookie name prefixes whose values are redacted.
var sensitiveCookiePrefixes = []string{
	"SessionID",
	"SID",
	"HSID",
	"SSID",
	"NID",
	"download_warning",
}

// SetupCookieJar initializes the HTTP client with a cookie jar if enabled in the configuration.
func SetupCookieJar(client *http.Client, enableCookieJar bool, log logger.Logger) error {
	if enableCookieJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			log.Error("Failed to create cookie jar", zap.Error(err))
			return fmt.Errorf("setupCookieJar failed: %w", err)
		}
		client.Jar = jar
		log.Debug("Cookie jar enabled")
	}
	return nil
}

// ApplyCustomCookies adds the configured cookies to an outgoing request. Cookies are added
// in name order so requests are reproducible.
func ApplyCustomCookies(req *http.Request, cookies map[string]string, log logger.Logger) {
	if len(cookies) == 0 {
		return
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
	}
	log.Debug("Custom cookies applied", zap.Strings("cookies", names))
}

// RedactSensitiveCookies returns copies of cookies with sensitive values replaced.
// The input slice is not modified.
func RedactSensitiveCookies(cookies []*http.Cookie) []*http.Cookie {
	redacted := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		copied := *cookie
		if isSensitiveCookie(copied.Name) {
			copied.Value = "REDACTED"
		}
		redacted = append(redacted, &copied)
	}
	return redacted
}

func isSensitiveCookie(name string) bool {
	for _, prefix := range sensitiveCookiePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// CookiesFromHeader converts the Set-Cookie values of a http.Header to []*http.Cookie.
func CookiesFromHeader(header http.Header) []*http.Cookie {
	cookies := []*http.Cookie{}
	for _, cookieHeader := range header.Values("Set-Cookie") {
		if cookie := ParseCookieHeader(cookieHeader); cookie != nil {
			cookies = append(cookies, cookie)
		}
	}
	return cookies
}

// ParseCookieHeader parses a single Set-Cookie header and returns an *http.Cookie carrying
// its name and value. Attributes are ignored.
func ParseCookieHeader(header string) *http.Cookie {
	headerParts := strings.Split(header, ";")
	cookieParts := strings.SplitN(headerParts[0], "=", 2)
	if len(cookieParts) == 2 && strings.TrimSpace(cookieParts[0]) != "" {
		return &http.Cookie{Name: strings.TrimSpace(cookieParts[0]), Value: strings.TrimSpace(cookieParts[1])}
	}
	return nil
}

// CookieNames returns the names of cookies, for logging.
func CookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		names = append(names, cookie.Name)
	}
	return names
}
