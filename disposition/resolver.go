// disposition/resolver.go
/* Package disposition resolves the filename a server intends for a response body from the
value of its Content-Disposition header. Both the plain `filename` parameter and the extended
`filename*` parameter (charset prefixed, percent-encoded) are understood. */
package disposition

import (
	"regexp"
	"strings"
)

const utf8Prefix = "utf-8''"

var (
	extendedFilenameParam = regexp.MustCompile(`(?i)filename\*=([^;]+)`)
	plainFilenameParam    = regexp.MustCompile(`(?i)filename=([^;]+)`)
)

// ResolveFilename returns the filename carried by a Content-Disposition header value.
// The extended `filename*` parameter takes precedence over `filename`. Only the first
// occurrence of a parameter is considered and its value runs up to the next ';' or the end
// of the header. Extended values prefixed with UTF-8'' are percent-decoded; plain values are
// used verbatim. The result is trimmed of surrounding whitespace and one layer of double quotes.
//
// A *MalformedHeaderError is returned when no filename parameter is present or the resolved
// name is empty.
func ResolveFilename(header string) (string, error) {
	value, extended := findParam(header)
	if value == "" {
		return "", &MalformedHeaderError{Header: header, Reason: "no filename or filename* parameter"}
	}

	name := value
	if extended {
		name = decodeExtendedValue(value)
	}

	name = trimQuotes(strings.TrimSpace(name))
	if name == "" {
		return "", &MalformedHeaderError{Header: header, Reason: "filename parameter is empty"}
	}

	return name, nil
}

// findParam returns the raw value of the first filename* parameter, falling back to the
// first filename parameter. extended reports which of the two matched.
func findParam(header string) (value string, extended bool) {
	if m := extendedFilenameParam.FindStringSubmatch(header); m != nil {
		return m[1], true
	}
	if m := plainFilenameParam.FindStringSubmatch(header); m != nil {
		return m[1], false
	}
	return "", false
}

// decodeExtendedValue strips a UTF-8'' charset prefix and percent-decodes what follows.
// Values carrying any other charset are returned unchanged.
func decodeExtendedValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < len(utf8Prefix) || !strings.EqualFold(trimmed[:len(utf8Prefix)], utf8Prefix) {
		return value
	}
	return strings.ToValidUTF8(unescapeLenient(trimmed[len(utf8Prefix):]), "\uFFFD")
}

// unescapeLenient decodes every valid %XX sequence and keeps anything else, including a
// stray '%', byte for byte. '+' is not treated as a space.
func unescapeLenient(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// trimQuotes removes at most one leading and one trailing double quote.
func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
