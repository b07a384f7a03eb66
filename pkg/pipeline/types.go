package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// ConvertItem represents a single image conversion request
type ConvertItem struct {
	Job       string `json:"job,omitempty"` // defaults to JobConvert
	InputPath string `json:"input_path"`
	BatchID   string `json:"batch_id,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

// ItemResult represents the outcome of converting one image
type ItemResult struct {
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path,omitempty"`
	RunID      string        `json:"run_id"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
}

// Succeeded reports whether the item was written
func (r ItemResult) Succeeded() bool {
	return r.Error == ""
}

// ConvertRequest is the body of POST /v1/convert and /v1/convert/async
type ConvertRequest struct {
	Paths []string `json:"paths"`
}

// ConvertResponse represents the response from a synchronous batch
type ConvertResponse struct {
	BatchID   string       `json:"batch_id"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Items     []ItemResult `json:"items"`
}

// AsyncResponse represents the response from enqueueing durable conversions
type AsyncResponse struct {
	RunIDs []string `json:"run_ids"`
}

// RunStatus is the body of GET /v1/runs/{id}
type RunStatus struct {
	WorkflowUUID string `json:"workflow_uuid"`
	Status       string `json:"status"`
	Name         string `json:"name"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ConvertJob is a batch submitted through the message queue
type ConvertJob struct {
	JobID       string    `json:"job_id"`
	InputPaths  []string  `json:"input_paths"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewConvertJob creates a job with a fresh ID
func NewConvertJob(inputPaths []string) ConvertJob {
	return ConvertJob{
		JobID:       uuid.New().String(),
		InputPaths:  inputPaths,
		RequestedAt: time.Now().UTC(),
	}
}

// Job names
const (
	JobConvert = "convert"
)

// Item statuses used in metrics and the ledger
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)
