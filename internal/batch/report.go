package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Report is the outcome of one batch. Items keeps input order.
type Report struct {
	BatchID   string
	Items     []pipeline.ItemResult
	Succeeded int
	Failed    int
	Elapsed   time.Duration

	errs []error
}

func newReport(batchID string, n int) *Report {
	return &Report{
		BatchID: batchID,
		Items:   make([]pipeline.ItemResult, n),
		errs:    make([]error, n),
	}
}

// set stores the result for slot i; each slot has a single writer
func (r *Report) set(i int, item pipeline.ItemResult, err error) {
	r.Items[i] = item
	r.errs[i] = err
}

func (r *Report) finish(elapsed time.Duration) {
	r.Elapsed = elapsed
	for _, item := range r.Items {
		if item.Succeeded() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// Failures returns the failed items in input order.
func (r *Report) Failures() []pipeline.ItemResult {
	var failed []pipeline.ItemResult
	for _, item := range r.Items {
		if !item.Succeeded() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Err joins the per-item errors, or returns nil when every item succeeded.
func (r *Report) Err() error {
	var joined []error
	for i, err := range r.errs {
		if err != nil {
			joined = append(joined, fmt.Errorf("%s: %w", r.Items[i].InputPath, err))
		}
	}
	return errors.Join(joined...)
}

// Response renders the report for the HTTP API.
func (r *Report) Response() pipeline.ConvertResponse {
	return pipeline.ConvertResponse{
		BatchID:   r.BatchID,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		ElapsedMS: r.Elapsed.Milliseconds(),
		Items:     r.Items,
	}
}
