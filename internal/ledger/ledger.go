// Package ledger records every conversion attempt in Postgres.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Recorder writes conversion outcomes to the conversion_ledger table
type Recorder struct {
	db *sql.DB
}

// Open connects to dsn and prepares the ledger table
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}

	rec, err := NewRecorder(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return rec, nil
}

// NewRecorder creates a recorder on an existing connection
func NewRecorder(ctx context.Context, db *sql.DB) (*Recorder, error) {
	rec := &Recorder{db: db}

	if err := rec.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger table: %w", err)
	}

	return rec, nil
}

func (r *Recorder) ensureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS conversion_ledger (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT,
			status TEXT NOT NULL,
			error TEXT,
			width INTEGER,
			height INTEGER,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create conversion_ledger table: %w", err)
	}

	log.Printf("✓ conversion_ledger table ready")
	return nil
}

// Record inserts one row for item
func (r *Recorder) Record(ctx context.Context, item pipeline.ItemResult) error {
	query := `
		INSERT INTO conversion_ledger (run_id, input_path, output_path, status, error, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	status := pipeline.StatusSucceeded
	if !item.Succeeded() {
		status = pipeline.StatusFailed
	}

	_, err := r.db.ExecContext(ctx, query,
		item.RunID, item.InputPath, item.OutputPath, status, item.Error, item.Width, item.Height)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

// SeenCount returns how many times inputPath has been converted successfully
func (r *Recorder) SeenCount(ctx context.Context, inputPath string) (int, error) {
	query := `SELECT COUNT(*) FROM conversion_ledger WHERE input_path = $1 AND status = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, inputPath, pipeline.StatusSucceeded).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get seen count: %w", err)
	}
	return count, nil
}

// Observe logs how often a successful input was converted before, then
// records item. Ledger errors are logged and never fail a conversion.
func (r *Recorder) Observe(item pipeline.ItemResult) {
	ctx := context.Background()

	if item.Succeeded() {
		n, err := r.SeenCount(ctx, item.InputPath)
		if err != nil {
			log.Printf("[%s] Ledger lookup failed: %v", item.RunID, err)
		} else if n > 0 {
			log.Printf("[%s] %s previously converted %d time(s)", item.RunID, item.InputPath, n)
		}
	}

	if err := r.Record(ctx, item); err != nil {
		log.Printf("[%s] Ledger write failed: %v", item.RunID, err)
	}
}

// Close releases the database connection
func (r *Recorder) Close() error {
	return r.db.Close()
}
