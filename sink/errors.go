// sink/errors.go
package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for file names that are empty or contain path separators.
	ErrInvalidName = errors.New("invalid file name")
	// ErrAborted is the cause seen by an upload whose object was aborted.
	ErrAborted = errors.New("object aborted")
)

// FilesystemError is returned when a destination cannot be opened, written, or published.
type FilesystemError struct {
	Op   string // Operation that failed: validate, create, write, commit
	Path string // File path or object name
	Err  error  // Underlying cause
}

// Error returns a string representation of the FilesystemError.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
