package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/handlers"
	"github.com/tendant/simple-image-manip/internal/ledger"
	"github.com/tendant/simple-image-manip/internal/metrics"
	"github.com/tendant/simple-image-manip/pkg/runner"
)

func main() {
	exeDir, err := config.ExecutableDir()
	if err != nil {
		log.Fatalf("Failed to locate executable: %v", err)
	}

	// Loads .env files if present
	env, problems := config.LoadEnv(exeDir)
	for _, p := range problems {
		log.Printf("Invalid environment: %v", p)
	}
	if len(problems) > 0 {
		os.Exit(2)
	}

	ctx := context.Background()

	collector := metrics.New(true)
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
		ConfigPath:         env.ConfigPath,
		OutputDir:          env.OutputDir,
		Workers:            env.Workers,
		UniqueNames:        env.UniqueNames,
		JPEGQuality:        env.JPEGQuality,
		Observers:          observers,
		DatabaseURL:        env.DBOSDatabaseURL,
		QueueName:          env.DBOSQueueName,
		Concurrency:        env.Workers,
		ApplicationVersion: env.DBOSAppVersion,
	})
	if err != nil {
		log.Fatalf("Failed to initialize converter: %v", err)
	}
	defer r.Shutdown(10 * time.Second)

	log.Printf("✓ Converter ready")
	log.Printf("  Config: %s (%s)", r.LoadResult().Path, r.LoadResult().Outcome)
	log.Printf("  Output: %s", r.OutputDir())
	log.Printf("  Workers: %d", r.Workers())

	var async *handlers.AsyncHandler
	if env.DBOSDatabaseURL != "" {
		async = handlers.NewAsyncHandler(r.Workflows())
		log.Printf("✓ Registered async endpoints")
	}

	server := &http.Server{
		Addr:    env.HTTPAddr,
		Handler: handlers.NewMux(handlers.NewConvertHandler(r), async, collector.Handler()),
	}

	// Start server in goroutine
	go func() {
		log.Printf("Image server starting on %s", env.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
