// Package runner wires the configuration sidecar, output folder and batch
// runner into one value for programs that convert images in-process.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/dbosruntime"
	"github.com/tendant/simple-image-manip/internal/naming"
	"github.com/tendant/simple-image-manip/internal/storage"
	"github.com/tendant/simple-image-manip/internal/workflows"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

var (
	// ErrConfigWrite is returned when RequireConfig is set and the default sidecar could not be written
	ErrConfigWrite = errors.New("failed to write configuration file")

	// ErrOutputDir is returned when the output folder cannot be created
	ErrOutputDir = errors.New("failed to create output directory")
)

// Config holds the configuration for initializing a Runner
type Config struct {
	ConfigPath    string // Sidecar path; defaults to image_manip_config.json next to the executable
	OutputDir     string // Defaults to image_manip_convert next to the executable
	Workers       int    // Concurrent conversions; defaults to 1
	UniqueNames   bool   // Salt output names so repeated inputs never collide
	JPEGQuality   int    // 1-100; 0 keeps the encoder default
	RequireConfig bool   // Fail when the default sidecar cannot be written

	// Observers see every finished item
	Observers []batch.Observer

	// Optional durable async execution
	DatabaseURL        string
	QueueName          string
	Concurrency        int
	ApplicationVersion string
}

// Runner converts images with the settings loaded at construction
type Runner struct {
	load      config.LoadResult
	outputDir string
	batch     *batch.Runner
	workflows *workflows.WorkflowRunner
	runtime   *dbosruntime.Runtime
}

// New loads the sidecar, prepares the output folder and, when DatabaseURL
// is set, launches the DBOS runtime.
func New(ctx context.Context, cfg Config) (*Runner, error) {
	if cfg.ConfigPath == "" || cfg.OutputDir == "" {
		exeDir, err := config.ExecutableDir()
		if err != nil {
			return nil, err
		}
		if cfg.ConfigPath == "" {
			cfg.ConfigPath = config.SidecarPath(exeDir)
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = config.OutputDir(exeDir)
		}
	}

	load := config.LoadOrCreate(cfg.ConfigPath)
	logLoad(load)
	if load.WriteErr != nil && cfg.RequireConfig {
		return nil, fmt.Errorf("%w: %w", ErrConfigWrite, load.WriteErr)
	}

	store, err := storage.NewFilesystemStorage(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputDir, err)
	}

	var opts []workflows.Option
	if cfg.JPEGQuality > 0 {
		opts = append(opts, workflows.WithJPEGQuality(cfg.JPEGQuality))
	}
	forger := naming.NewForger(store.BaseDir(), load.Config.Extension, cfg.UniqueNames)
	convertWorkflow, err := workflows.NewConvertWorkflow(load.Config, storage.NewDefaultSources(), store, forger, opts...)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		load:      load,
		outputDir: store.BaseDir(),
		batch:     batch.NewRunner(convertWorkflow, cfg.Workers, cfg.Observers...),
	}

	if cfg.DatabaseURL != "" {
		r.runtime, err = dbosruntime.NewRuntime(ctx, dbosruntime.Config{
			DatabaseURL:        cfg.DatabaseURL,
			QueueName:          cfg.QueueName,
			Concurrency:        cfg.Concurrency,
			ApplicationVersion: cfg.ApplicationVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
		}
	}

	// Registers the DBOS workflow function when a runtime is present
	r.workflows = workflows.NewWorkflowRunner(r.runtime)
	r.workflows.Register(pipeline.JobConvert, convertWorkflow)

	if r.runtime != nil {
		// Launch DBOS (must be after workflow registration)
		if err := r.runtime.Launch(); err != nil {
			return nil, fmt.Errorf("failed to launch DBOS: %w", err)
		}
		log.Printf("✓ DBOS runtime initialized (queue %s)", r.runtime.QueueName())
	}

	return r, nil
}

func logLoad(load config.LoadResult) {
	switch load.Outcome {
	case config.OutcomeLoaded:
		log.Printf("✓ Loaded configuration from %s", load.Path)
	case config.OutcomeCreated:
		log.Printf("No configuration at %s, using defaults", load.Path)
	case config.OutcomeCorrupt:
		log.Printf("Configuration at %s is invalid (%v), using defaults", load.Path, load.Err)
	case config.OutcomeReadFailed:
		log.Printf("Could not read configuration at %s (%v), using defaults", load.Path, load.Err)
	}
	if load.WriteErr != nil {
		log.Printf("Failed to write default configuration: %v", load.WriteErr)
	} else if load.Outcome == config.OutcomeCreated || load.Outcome == config.OutcomeCorrupt {
		log.Printf("✓ Wrote default configuration to %s", load.Path)
	}
}

// Convert converts every path and waits for all of them
func (r *Runner) Convert(ctx context.Context, paths []string) *batch.Report {
	return r.batch.Run(ctx, paths)
}

// ConvertWith is Convert with extra observers for this batch only
func (r *Runner) ConvertWith(ctx context.Context, paths []string, observers ...batch.Observer) *batch.Report {
	return r.batch.RunWith(ctx, paths, observers...)
}

// ConvertAsync enqueues a durable conversion and returns its run ID
func (r *Runner) ConvertAsync(ctx context.Context, path string) (string, error) {
	return r.workflows.RunAsync(ctx, pipeline.ConvertItem{
		Job:       pipeline.JobConvert,
		InputPath: path,
	})
}

// Run implements the handler and executor batch interface
func (r *Runner) Run(ctx context.Context, paths []string) *batch.Report {
	return r.Convert(ctx, paths)
}

// Settings returns the conversion settings in effect
func (r *Runner) Settings() config.Config {
	return r.load.Config
}

// LoadResult reports how the settings were obtained
func (r *Runner) LoadResult() config.LoadResult {
	return r.load
}

// OutputDir returns the folder converted files are written to
func (r *Runner) OutputDir() string {
	return r.outputDir
}

// Workers returns the batch pool size
func (r *Runner) Workers() int {
	return r.batch.Workers()
}

// Workflows returns the workflow runner, for async handlers
func (r *Runner) Workflows() *workflows.WorkflowRunner {
	return r.workflows
}

// Shutdown gracefully shuts down the DBOS runtime, if any
func (r *Runner) Shutdown(timeout time.Duration) {
	if r.runtime != nil {
		r.runtime.Shutdown(timeout)
	}
}
