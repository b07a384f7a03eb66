// Package batch fans a list of input paths out over a bounded worker pool.
// Each path is converted independently; a failure is recorded against its
// item and never stops the others.
package batch

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-image-manip/internal/workflows"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Observer receives every finished item. Observers are called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	Observe(item pipeline.ItemResult)
}

// BatchObserver is notified when a batch starts.
type BatchObserver interface {
	BatchStarted(n int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(item pipeline.ItemResult)

// Observe implements Observer.
func (f ObserverFunc) Observe(item pipeline.ItemResult) { f(item) }

// Runner converts batches of paths with a shared workflow.
type Runner struct {
	workflow  workflows.Workflow
	workers   int
	observers []Observer
}

// NewRunner creates a runner executing workflow on at most workers items at once.
func NewRunner(workflow workflows.Workflow, workers int, observers ...Observer) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workflow:  workflow,
		workers:   workers,
		observers: observers,
	}
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Run converts every path and returns once all of them have finished. Items
// not yet started when ctx is canceled are reported as failed.
func (r *Runner) Run(ctx context.Context, paths []string) *Report {
	return r.run(ctx, paths, r.observers)
}

// RunWith is Run with extra observers for this batch only.
func (r *Runner) RunWith(ctx context.Context, paths []string, extra ...Observer) *Report {
	observers := append(append([]Observer(nil), r.observers...), extra...)
	return r.run(ctx, paths, observers)
}

func (r *Runner) run(ctx context.Context, paths []string, observers []Observer) *Report {
	start := time.Now()
	report := newReport(uuid.New().String(), len(paths))

	for _, o := range observers {
		if bo, ok := o.(BatchObserver); ok {
			bo.BatchStarted(len(paths))
		}
	}
	log.Printf("[%s] Converting %d image(s) with %d worker(s)", report.BatchID, len(paths), r.workers)

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			report.set(i, pipeline.ItemResult{InputPath: path, Error: err.Error()}, err)
			notify(observers, report.Items[i])
			continue
		}

		g.Go(func() error {
			item, err := r.convert(ctx, report.BatchID, path)
			report.set(i, item, err)
			notify(observers, item)
			return nil
		})
	}

	// Items never return an error to the group
	_ = g.Wait()

	report.finish(time.Since(start))
	return report
}

func (r *Runner) convert(ctx context.Context, batchID, path string) (pipeline.ItemResult, error) {
	start := time.Now()
	runID := uuid.New().String()

	res, err := r.workflow.Execute(&workflows.WorkflowContext{
		Ctx: ctx,
		Item: pipeline.ConvertItem{
			Job:       pipeline.JobConvert,
			InputPath: path,
			BatchID:   batchID,
			RunID:     runID,
		},
		RunID: runID,
	})

	item := pipeline.ItemResult{
		InputPath: path,
		RunID:     runID,
		Duration:  time.Since(start),
	}
	if err == nil && (res == nil || !res.Success) {
		msg := "workflow returned failure"
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		err = errors.New(msg)
	}
	if err != nil {
		item.Error = err.Error()
		return item, err
	}

	item.OutputPath = res.Outputs["output_path"]
	item.Width, _ = strconv.Atoi(res.Outputs["width"])
	item.Height, _ = strconv.Atoi(res.Outputs["height"])
	return item, nil
}

func notify(observers []Observer, item pipeline.ItemResult) {
	for _, o := range observers {
		o.Observe(item)
	}
}
