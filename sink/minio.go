// sink/minio.go
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig holds the connection settings for an S3-compatible object store.
type MinioConfig struct {
	Endpoint        string `json:"Endpoint,omitempty"`
	AccessKeyID     string `json:"AccessKeyID,omitempty"`
	SecretAccessKey string `json:"SecretAccessKey,omitempty"`
	BucketName      string `json:"BucketName,omitempty"`
	UseSSL          bool   `json:"UseSSL,omitempty"`
	Location        string `json:"Location,omitempty"`
	Prefix          string `json:"Prefix,omitempty"`
}

// Validate reports the first required field that is missing.
func (c MinioConfig) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("minio endpoint is required")
	case c.AccessKeyID == "":
		return errors.New("minio access key is required")
	case c.SecretAccessKey == "":
		return errors.New("minio secret key is required")
	case c.BucketName == "":
		return errors.New("minio bucket name is required")
	}
	return nil
}

// objectStore is the subset of *minio.Client used by MinioSink.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioSink streams downloaded files into a bucket, optionally under a key prefix.
type MinioSink struct {
	client objectStore
	bucket string
	prefix string
	log    logger.Logger
}

// NewMinioSink connects to the configured endpoint and makes sure the bucket exists.
func NewMinioSink(ctx context.Context, config MinioConfig, log logger.Logger) (*MinioSink, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return newMinioSink(ctx, client, config, log)
}

func newMinioSink(ctx context.Context, client objectStore, config MinioConfig, log logger.Logger) (*MinioSink, error) {
	s := &MinioSink{
		client: client,
		bucket: config.BucketName,
		prefix: config.Prefix,
		log:    log,
	}
	if err := s.ensureBucket(ctx, config.Location); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return s, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *MinioSink) ensureBucket(ctx context.Context, location string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking if bucket exists: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("error creating bucket: %w", err)
	}
	s.log.Info("Created bucket", zap.String("bucket", s.bucket), zap.String("location", location))
	return nil
}

// Create starts an upload of unknown size. The object only appears in the bucket once
// Commit has returned successfully.
func (s *MinioSink) Create(ctx context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	objectName := name
	if s.prefix != "" {
		objectName = path.Join(s.prefix, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, &FilesystemError{Op: "create", Path: objectName, Err: err}
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	pr, pw := io.Pipe()
	obj := &minioObject{
		pipe:       pw,
		bucket:     s.bucket,
		objectName: objectName,
		log:        s.log,
		result:     make(chan error, 1),
	}

	go func() {
		info, err := s.client.PutObject(ctx, s.bucket, objectName, pr, -1, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err == nil {
			s.log.Debug("Uploaded object",
				zap.String("bucket", info.Bucket),
				zap.String("object", info.Key),
				zap.String("size", humanize.Bytes(uint64(info.Size))),
			)
		}
		// Unblock any writer still waiting on the pipe.
		pr.CloseWithError(err)
		obj.result <- err
	}()

	return obj, nil
}

type minioObject struct {
	pipe       *io.PipeWriter
	bucket     string
	objectName string
	log        logger.Logger
	result     chan error
	done       bool
}

func (o *minioObject) Write(p []byte) (int, error) {
	n, err := o.pipe.Write(p)
	if err != nil {
		return n, &FilesystemError{Op: "write", Path: o.objectName, Err: err}
	}
	return n, nil
}

func (o *minioObject) Commit() error {
	if o.done {
		return nil
	}
	o.done = true

	o.pipe.Close()
	if err := <-o.result; err != nil {
		return &FilesystemError{Op: "commit", Path: o.objectName, Err: err}
	}
	return nil
}

func (o *minioObject) Abort() error {
	if o.done {
		return nil
	}
	o.done = true

	o.pipe.CloseWithError(ErrAborted)
	if err := <-o.result; err != nil && !errors.Is(err, ErrAborted) {
		o.log.Debug("Aborted upload finished with error", zap.String("object", o.objectName), zap.Error(err))
	}
	return nil
}

func (o *minioObject) Location() string {
	return fmt.Sprintf("minio://%s/%s", o.bucket, o.objectName)
}
