// downloader/batch.go
package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DownloadError records which resource a failure belongs to.
type DownloadError struct {
	ResourceID string
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.ResourceID, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Report summarises a Run.
type Report struct {
	RunID    string
	Results  []*Result
	Failures []*DownloadError
	Bytes    int64
	Duration time.Duration
}

// Err joins every recorded failure, or returns nil when there were none.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, failure := range r.Failures {
		errs[i] = failure
	}
	return errors.Join(errs...)
}

// Run downloads every configured resource in order.
//
// By default the first failure stops the run and is returned as a *DownloadError. With
// ContinueOnError set, failures are collected in the report, the remaining resources are still
// attempted, and the returned error joins all of them. Cancelling ctx stops the run before the
// next resource is started. The report is returned in every case.
func (c *Client) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.New().String()}
	log := c.Logger.With(zap.String("run_id", report.RunID))

	log.Info("Starting download run",
		zap.Int("resources", len(c.source.ResourceIDs)),
		zap.Bool("continue_on_error", c.config.ContinueOnError),
	)

	for _, resourceID := range c.source.ResourceIDs {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			log.Warn("Download run cancelled", zap.Int("completed", len(report.Results)), zap.Error(err))
			return report, errors.Join(report.Err(), err)
		}

		result, err := c.download(ctx, log, resourceID)
		if err != nil {
			failure := &DownloadError{ResourceID: resourceID, Err: err}
			report.Failures = append(report.Failures, failure)

			if !c.config.ContinueOnError {
				report.Duration = time.Since(start)
				log.Error("Download run stopped", zap.String("resource_id", resourceID), zap.Error(err))
				return report, failure
			}
			log.Warn("Download failed, continuing with next resource", zap.String("resource_id", resourceID), zap.Error(err))
			continue
		}

		report.Results = append(report.Results, result)
		report.Bytes += result.Bytes
	}

	report.Duration = time.Since(start)
	log.Info("Download run finished",
		zap.Int("succeeded", len(report.Results)),
		zap.Int("failed", len(report.Failures)),
		zap.String("total_size", humanize.Bytes(uint64(report.Bytes))),
		zap.Duration("duration", report.Duration),
	)

	return report, report.Err()
}
