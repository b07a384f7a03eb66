package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/executors"
	"github.com/tendant/simple-image-manip/internal/ledger"
	"github.com/tendant/simple-image-manip/internal/metrics"
	"github.com/tendant/simple-image-manip/internal/queue"
	"github.com/tendant/simple-image-manip/pkg/runner"
)

func main() {
	exeDir, err := config.ExecutableDir()
	if err != nil {
		log.Fatalf("Failed to locate executable: %v", err)
	}

	env, problems := config.LoadEnv(exeDir)
	for _, p := range problems {
		log.Printf("Invalid environment: %v", p)
	}
	if len(problems) > 0 {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.New(false)
	observers := []batch.Observer{collector}

	if env.LedgerDatabaseURL != "" {
		rec, err := ledger.Open(ctx, env.LedgerDatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize ledger: %v", err)
		}
		defer rec.Close()
		observers = append(observers, rec)
	}

	r, err := runner.New(ctx, runner.Config{
		ConfigPath:  env.ConfigPath,
		OutputDir:   env.OutputDir,
		Workers:     env.Workers,
		UniqueNames: env.UniqueNames,
		JPEGQuality: env.JPEGQuality,
		Observers:   observers,
	})
	if err != nil {
		log.Fatalf("Failed to initialize converter: %v", err)
	}

	client, err := queue.NewClient(env.RabbitMQURL, env.QueueName)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer client.Close()

	log.Printf("✓ Worker ready")
	log.Printf("  Queue: %s", env.QueueName)
	log.Printf("  Output: %s", r.OutputDir())

	executor := executors.NewConvertExecutor(r)
	if err := client.ConsumeJobs(ctx, executor.Execute); err != nil {
		log.Printf("Consumer stopped: %v", err)
	}

	if env.MetricsFile != "" {
		if err := collector.WriteTextfile(env.MetricsFile); err != nil {
			log.Printf("Failed to write metrics: %v", err)
		}
	}

	log.Println("Worker stopped")
}
