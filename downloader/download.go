// downloader/download.go
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-share-downloader/cookiejar"
	"github.com/deploymenttheory/go-share-downloader/disposition"
	"github.com/deploymenttheory/go-share-downloader/headers"
	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/response"
	"github.com/deploymenttheory/go-share-downloader/sink"
	"github.com/deploymenttheory/go-share-downloader/version"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result describes a file that was downloaded and committed to the sink.
type Result struct {
	ResourceID string
	URL        string
	Filename   string
	Location   string
	Bytes      int64
	Duration   time.Duration
	RequestID  string
}

// Download fetches a single resource and stores it under the filename from its
// Content-Disposition header.
//
// Failures are reported as one of:
//   - *response.TransportError when the request fails, the status is not 2xx, or the body
//     cannot be read to the end.
//   - *disposition.MalformedHeaderError when no filename can be resolved. Nothing is created
//     in the sink in that case.
//   - *sink.FilesystemError when the destination cannot be opened, written, or committed.
//
// A cancelled ctx surfaces through whichever of these kinds was in progress, and
// errors.Is(err, context.Canceled) holds in every case. A destination that was opened is
// discarded if the copy does not complete.
func (c *Client) Download(ctx context.Context, resourceID string) (*Result, error) {
	return c.download(ctx, c.Logger, resourceID)
}

func (c *Client) download(ctx context.Context, log logger.Logger, resourceID string) (*Result, error) {
	start := time.Now()

	downloadURL, err := c.source.BuildURL(resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to build url for resource %q: %w", resourceID, err)
	}

	requestID := uuid.New().String()
	log = log.With(zap.String("request_id", requestID), zap.String("resource_id", resourceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, response.NewRequestError(http.MethodGet, downloadURL, err)
	}

	headerHandler := headers.NewHeaderHandler(req, log)
	headerHandler.SetRequestHeaders(version.GetUserAgentHeader())
	cookiejar.ApplyCustomCookies(req, c.config.CustomCookies, log)

	log.LogRequestStart("download_start", requestID, req.Method, downloadURL, headerHandler.RedactedHeaders(c.config.HideSensitiveData))
	headerHandler.LogHeaders(c.config.HideSensitiveData)

	resp, err := c.http.Do(req)
	if err != nil {
		log.LogError("download_error", req.Method, downloadURL, 0, "", err, "")
		return nil, response.NewRequestError(req.Method, downloadURL, err)
	}
	defer resp.Body.Close()

	log.LogRequestEnd("download_response", req.Method, downloadURL, resp.StatusCode, time.Since(start))
	logResponseCookies(log, resp, c.config.HideSensitiveData)

	if !response.IsSuccess(resp.StatusCode) {
		return nil, response.HandleErrorResponse(resp, log)
	}

	filename, err := disposition.ResolveFilename(resp.Header.Get("Content-Disposition"))
	if err != nil {
		log.Error("Failed to resolve filename", zap.String("url", downloadURL), zap.Error(err))
		return nil, err
	}

	obj, err := c.sink.Create(ctx, filename)
	if err != nil {
		log.Error("Failed to open destination", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	written, err := copyChunks(obj, resp.Body, c.config.ChunkSize)
	if err != nil {
		if abortErr := obj.Abort(); abortErr != nil {
			log.Warn("Failed to discard partial download", zap.String("location", obj.Location()), zap.Error(abortErr))
		}

		var readErr *bodyReadError
		if errors.As(err, &readErr) {
			transportErr := response.NewRequestError(req.Method, downloadURL, readErr.err)
			transportErr.StatusCode = resp.StatusCode
			transportErr.Status = resp.Status
			transportErr.Message = "failed to read response body"
			log.LogError("download_error", req.Method, downloadURL, resp.StatusCode, resp.Status, readErr.err, "")
			return nil, transportErr
		}

		var fsErr *sink.FilesystemError
		if !errors.As(err, &fsErr) {
			err = &sink.FilesystemError{Op: "write", Path: obj.Location(), Err: err}
		}
		log.Error("Failed to write download", zap.String("location", obj.Location()), zap.Error(err))
		return nil, err
	}

	if err := obj.Commit(); err != nil {
		log.Error("Failed to commit download", zap.String("location", obj.Location()), zap.Error(err))
		return nil, err
	}

	result := &Result{
		ResourceID: resourceID,
		URL:        downloadURL,
		Filename:   filename,
		Location:   obj.Location(),
		Bytes:      written,
		Duration:   time.Since(start),
		RequestID:  requestID,
	}
	log.LogDownloadSaved("download_saved", resourceID, filename, result.Location, written, result.Duration)

	return result, nil
}

// logResponseCookies records the cookies set by the final response at debug level. Share
// links hand out download-warning and session cookies that are useful when diagnosing a
// missing Content-Disposition header.
func logResponseCookies(log logger.Logger, resp *http.Response, hideSensitiveData bool) {
	if log.GetLogLevel() > logger.LogLevelDebug {
		return
	}
	cookies := cookiejar.CookiesFromHeader(resp.Header)
	if len(cookies) == 0 {
		return
	}
	if hideSensitiveData {
		cookies = cookiejar.RedactSensitiveCookies(cookies)
	}
	values := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		values = append(values, cookie.Name+"="+cookie.Value)
	}
	log.Debug("Response cookies received",
		zap.Strings("cookie_names", cookiejar.CookieNames(cookies)),
		zap.Strings("cookies", values),
	)
}

// bodyReadError marks a failure reading the response body, as opposed to writing it out.
type bodyReadError struct {
	err error
}

func (e *bodyReadError) Error() string {
	return fmt.Sprintf("read response body: %v", e.err)
}

func (e *bodyReadError) Unwrap() error {
	return e.err
}

// copyChunks copies src to dst through a single buffer of chunkSize bytes. Each chunk is
// written before the next one is read.
func copyChunks(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			written += int64(nw)
			if writeErr != nil {
				return written, writeErr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, &bodyReadError{err: readErr}
		}
	}
}
