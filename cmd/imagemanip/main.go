// Command imagemanip converts images using the settings in a sidecar file
// next to the executable.
//
// Every positional argument is an input image. Converted files are written
// to image_manip_convert/ under a hashed name. With -watch, the command keeps
// running and converts images as they appear in a directory.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/ledger"
	"github.com/tendant/simple-image-manip/internal/metrics"
	"github.com/tendant/simple-image-manip/internal/watcher"
	"github.com/tendant/simple-image-manip/pkg/runner"
)

// version is injected at build time via -ldflags
var version = "dev"

// Exit codes
const (
	exitOK          = 0
	exitItemFailed  = 1
	exitConfigError = 2
	exitOutputError = 3
)

type options struct {
	configPath    string
	outputDir     string
	workers       int
	watchDir      string
	requireConfig bool
	metricsFile   string
	noProgress    bool
	pause         bool
	showVersion   bool
	paths         []string
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	start := time.Now()

	exeDir, err := config.ExecutableDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "imagemanip: %v\n", err)
		return exitConfigError
	}

	env, problems := config.LoadEnv(exeDir)
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "imagemanip: %v\n", p)
	}
	if len(problems) > 0 {
		return exitConfigError
	}

	opts, err := parseFlags(os.Args[1:], env)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "imagemanip: %v\n", err)
		return exitConfigError
	}
	if opts.showVersion {
		fmt.Printf("imagemanip %s\n", version)
		return exitOK
	}
	if opts.pause {
		defer waitForEnter()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.New(false)
	observers := []batch.Observer{collector}

	if env.LedgerDatabaseURL != "" {
		rec, err := ledger.Open(ctx, env.LedgerDatabaseURL)
		if err != nil {
			log.Printf("Ledger disabled: %v", err)
		} else {
			defer rec.Close()
			observers = append(observers, rec)
		}
	}

	r, err := runner.New(ctx, runner.Config{
		ConfigPath:    opts.configPath,
		OutputDir:     opts.outputDir,
		Workers:       opts.workers,
		UniqueNames:   env.UniqueNames,
		JPEGQuality:   env.JPEGQuality,
		RequireConfig: opts.requireConfig,
		Observers:     observers,
	})
	if err != nil {
		log.Printf("%v", err)
		return exitCode(err)
	}
	log.Printf("✓ Output directory: %s", r.OutputDir())

	var code int
	if opts.watchDir != "" {
		code = watch(ctx, r, opts.watchDir)
	} else {
		code = convert(ctx, r, opts)
	}

	if opts.metricsFile != "" {
		if err := collector.WriteTextfile(opts.metricsFile); err != nil {
			log.Printf("Failed to write metrics: %v", err)
		}
	}

	log.Printf("Elapsed: %s", time.Since(start).Round(time.Millisecond))
	return code
}

func parseFlags(args []string, env config.Env) (options, error) {
	var opts options

	fs := flag.NewFlagSet("imagemanip", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: imagemanip [flags] [image_path ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", env.ConfigPath, "configuration sidecar (.json, .yaml or .yml)")
	fs.StringVar(&opts.outputDir, "output", env.OutputDir, "directory for converted images")
	fs.IntVar(&opts.workers, "workers", env.Workers, "number of images converted at once")
	fs.StringVar(&opts.watchDir, "watch", "", "convert images as they appear in this directory")
	fs.BoolVar(&opts.requireConfig, "require-config", false, "fail if the default configuration cannot be written")
	fs.StringVar(&opts.metricsFile, "metrics-file", env.MetricsFile, "write Prometheus metrics to this file on exit")
	fs.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	fs.BoolVar(&opts.pause, "pause", false, "wait for Enter before exiting")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.workers < 1 {
		return opts, fmt.Errorf("-workers must be at least 1, got %d", opts.workers)
	}
	opts.paths = fs.Args()
	return opts, nil
}

func convert(ctx context.Context, r *runner.Runner, opts options) int {
	if len(opts.paths) == 0 {
		log.Printf("No input images given")
		return exitOK
	}

	var extra []batch.Observer
	var progress *batch.Progress
	if !opts.noProgress {
		progress = batch.NewProgress(len(opts.paths), os.Stderr)
		extra = append(extra, progress)
	}

	report := r.ConvertWith(ctx, opts.paths, extra...)
	if progress != nil {
		_ = progress.Finish()
	}

	printSummary(report)
	if report.Failed > 0 {
		return exitItemFailed
	}
	return exitOK
}

func watch(ctx context.Context, r *runner.Runner, dir string) int {
	w, err := watcher.New(dir, watcher.WithIgnoreDir(r.OutputDir()))
	if err != nil {
		log.Printf("%v", err)
		return exitConfigError
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		log.Printf("%v", err)
		return exitConfigError
	}
	log.Printf("Press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping watcher")
			return exitOK
		case path := <-w.Events():
			report := r.Convert(ctx, []string{path})
			for _, item := range report.Items {
				if item.Succeeded() {
					log.Printf("✓ %s -> %s", item.InputPath, item.OutputPath)
				} else {
					log.Printf("✗ %s: %s", item.InputPath, item.Error)
				}
			}
		}
	}
}

func printSummary(report *batch.Report) {
	for _, item := range report.Failures() {
		log.Printf("✗ %s: %s", item.InputPath, item.Error)
	}
	log.Printf("Converted %d of %d image(s), %d failed in %s",
		report.Succeeded, len(report.Items), report.Failed, report.Elapsed.Round(time.Millisecond))
}

// exitCode maps a startup error to the process exit code. Anything other
// than an output folder failure is a configuration problem.
func exitCode(err error) int {
	if errors.Is(err, runner.ErrOutputDir) {
		return exitOutputError
	}
	return exitConfigError
}

func waitForEnter() {
	fmt.Fprint(os.Stderr, "Press Enter to exit...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
