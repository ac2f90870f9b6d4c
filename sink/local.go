// sink/local.go
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"go.uber.org/zap"
)

// partSuffix marks files that are still being written.
const partSuffix = ".part"

// LocalSink writes files into a directory on the local filesystem. Each file is written
// under a ".part" name and renamed into place on commit.
type LocalSink struct {
	Dir string
	log logger.Logger
}

// NewLocalSink returns a LocalSink rooted at dir, creating the directory if needed.
func NewLocalSink(dir string, log logger.Logger) (*LocalSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &FilesystemError{Op: "create", Path: dir, Err: err}
	}
	return &LocalSink{Dir: dir, log: log}, nil
}

// Create opens <dir>/<name>.part for writing, truncating any leftover from an earlier run.
func (s *LocalSink) Create(ctx context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &FilesystemError{Op: "create", Path: filepath.Join(s.Dir, name), Err: err}
	}

	finalPath := filepath.Join(s.Dir, name)
	partPath := finalPath + partSuffix

	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &FilesystemError{Op: "create", Path: partPath, Err: err}
	}

	s.log.Debug("Opened local destination", zap.String("path", partPath))
	return &localObject{file: file, partPath: partPath, finalPath: finalPath, log: s.log}, nil
}

type localObject struct {
	file      *os.File
	partPath  string
	finalPath string
	log       logger.Logger
	done      bool
}

func (o *localObject) Write(p []byte) (int, error) {
	n, err := o.file.Write(p)
	if err != nil {
		return n, &FilesystemError{Op: "write", Path: o.partPath, Err: err}
	}
	return n, nil
}

func (o *localObject) Commit() error {
	if o.done {
		return nil
	}
	o.done = true

	if err := o.file.Close(); err != nil {
		o.removePart()
		return &FilesystemError{Op: "commit", Path: o.partPath, Err: err}
	}
	if err := os.Rename(o.partPath, o.finalPath); err != nil {
		o.removePart()
		return &FilesystemError{Op: "commit", Path: o.finalPath, Err: fmt.Errorf("rename from %s: %w", o.partPath, err)}
	}
	return nil
}

func (o *localObject) Abort() error {
	if o.done {
		return nil
	}
	o.done = true

	_ = o.file.Close()
	return o.removePart()
}

func (o *localObject) Location() string {
	return o.finalPath
}

func (o *localObject) removePart() error {
	if err := os.Remove(o.partPath); err != nil && !os.IsNotExist(err) {
		o.log.Warn("Failed to remove partial file", zap.String("path", o.partPath), zap.Error(err))
		return &FilesystemError{Op: "abort", Path: o.partPath, Err: err}
	}
	return nil
}
