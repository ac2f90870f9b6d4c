// sink/sink.go
/* Package sink provides the destinations downloaded bodies are written to. A Sink hands out
an Object per download; bytes written to the Object only become visible at their final
location once Commit succeeds, and Abort discards whatever was written so far. */
package sink

import (
	"context"
	"io"
	"strings"
)

// Sink creates destinations for downloaded files.
type Sink interface {
	// Create opens a destination for the file called name.
	Create(ctx context.Context, name string) (Object, error)
}

// Object is a destination being written. Exactly one of Commit or Abort should be called;
// calling either again after the first has no effect.
type Object interface {
	io.Writer
	// Commit publishes the written bytes under the object's final name.
	Commit() error
	// Abort discards the written bytes.
	Abort() error
	// Location describes where the object is published.
	Location() string
}

// ValidateName rejects names that are empty or would escape the destination directory.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return &FilesystemError{Op: "validate", Path: name, Err: ErrInvalidName}
	case strings.ContainsAny(name, "/\\\x00"):
		return &FilesystemError{Op: "validate", Path: name, Err: ErrInvalidName}
	}
	return nil
}
