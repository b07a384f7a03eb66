package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/tendant/simple-image-manip/internal/dbosruntime"
	"github.com/tendant/simple-image-manip/internal/workflows"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// AsyncRunner enqueues durable conversions and reports their status
type AsyncRunner interface {
	RunAsync(ctx context.Context, item pipeline.ConvertItem) (string, error)
	GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error)
}

// AsyncHandler handles asynchronous conversion requests
type AsyncHandler struct {
	workflowRunner AsyncRunner
}

// NewAsyncHandler creates a new async handler
func NewAsyncHandler(runner AsyncRunner) *AsyncHandler {
	return &AsyncHandler{
		workflowRunner: runner,
	}
}

// HandleConvertAsync handles POST /v1/convert/async - enqueues one workflow per path and returns immediately
func (h *AsyncHandler) HandleConvertAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeConvertRequest(w, r)
	if !ok {
		return
	}

	log.Printf("Enqueueing %d conversion(s)", len(req.Paths))

	resp := pipeline.AsyncResponse{RunIDs: make([]string, 0, len(req.Paths))}
	for _, path := range req.Paths {
		runID, err := h.workflowRunner.RunAsync(r.Context(), pipeline.ConvertItem{
			Job:       pipeline.JobConvert,
			InputPath: path,
		})
		if err != nil {
			log.Printf("Failed to enqueue workflow for %s: %v", path, err)
			status := http.StatusInternalServerError
			if errors.Is(err, workflows.ErrAsyncUnavailable) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, fmt.Sprintf("Failed to enqueue workflow: %v", err), status)
			return
		}
		resp.RunIDs = append(resp.RunIDs, runID)
	}

	log.Printf("Workflows enqueued successfully: run_ids=%s", strings.Join(resp.RunIDs, ","))

	writeJSON(w, http.StatusAccepted, resp)
}

// HandleStatus handles GET /v1/runs/{runID} - returns workflow status
func (h *AsyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract runID from URL path (/v1/runs/{runID})
	runID := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	status, err := h.workflowRunner.GetStatus(r.Context(), runID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case errors.Is(err, dbosruntime.ErrWorkflowNotFound):
		http.Error(w, "Workflow not found", http.StatusNotFound)
	case errors.Is(err, workflows.ErrAsyncUnavailable):
		http.Error(w, "Async conversions are not enabled", http.StatusServiceUnavailable)
	default:
		log.Printf("Failed to get workflow status: %v", err)
		http.Error(w, "Failed to get workflow status", http.StatusInternalServerError)
	}
}
