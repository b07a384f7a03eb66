// Package executors runs queued jobs against the batch runner.
package executors

import (
	"context"
	"fmt"
	"log"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// BatchRunner converts a list of paths
type BatchRunner interface {
	Run(ctx context.Context, paths []string) *batch.Report
}

// ConvertExecutor executes ConvertJobs received from the queue
type ConvertExecutor struct {
	runner BatchRunner
}

// NewConvertExecutor creates a new convert executor
func NewConvertExecutor(runner BatchRunner) *ConvertExecutor {
	return &ConvertExecutor{runner: runner}
}

// Execute converts every path in job. It returns an error when any item
// failed; the successful items are still written.
func (e *ConvertExecutor) Execute(ctx context.Context, job pipeline.ConvertJob) error {
	log.Printf("[%s] Executing convert job for %d path(s)", job.JobID, len(job.InputPaths))

	report := e.runner.Run(ctx, job.InputPaths)

	log.Printf("[%s] Batch %s: %d succeeded, %d failed in %s",
		job.JobID, report.BatchID, report.Succeeded, report.Failed, report.Elapsed)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w", report.Failed, len(report.Items), report.Err())
	}
	return nil
}
