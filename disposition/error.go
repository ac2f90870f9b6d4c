// disposition/error.go
package disposition

import "fmt"

// MalformedHeaderError is returned when a Content-Disposition value carries no usable filename.
type MalformedHeaderError struct {
	Header string // Raw header value as received
	Reason string // Why no filename could be resolved
}

// Error returns a string representation of the MalformedHeaderError.
func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed Content-Disposition header %q: %s", e.Header, e.Reason)
}
