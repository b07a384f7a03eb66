// Package handlers exposes conversions over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// BatchRunner converts a list of paths
type BatchRunner interface {
	Run(ctx context.Context, paths []string) *batch.Report
}

// ConvertHandler runs conversions synchronously
type ConvertHandler struct {
	runner BatchRunner
}

// NewConvertHandler creates a new sync handler
func NewConvertHandler(runner BatchRunner) *ConvertHandler {
	return &ConvertHandler{runner: runner}
}

// HandleConvert handles POST /v1/convert - converts every path and returns the report
func (h *ConvertHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeConvertRequest(w, r)
	if !ok {
		return
	}

	report := h.runner.Run(r.Context(), req.Paths)
	log.Printf("[%s] Batch finished: %d succeeded, %d failed in %s",
		report.BatchID, report.Succeeded, report.Failed, report.Elapsed)

	writeJSON(w, http.StatusOK, report.Response())
}

// HandleHealth returns health status
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func decodeConvertRequest(w http.ResponseWriter, r *http.Request) (pipeline.ConvertRequest, bool) {
	var req pipeline.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return req, false
	}

	if len(req.Paths) == 0 {
		http.Error(w, "paths is required", http.StatusBadRequest)
		return req, false
	}
	for _, p := range req.Paths {
		if strings.TrimSpace(p) == "" {
			http.Error(w, "paths must not contain empty entries", http.StatusBadRequest)
			return req, false
		}
	}

	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
