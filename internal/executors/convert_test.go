package executors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-image-manip/internal/batch"
	"github.com/tendant/simple-image-manip/internal/workflows"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

type stubWorkflow struct{}

func (stubWorkflow) Name() string { return "stub" }

func (stubWorkflow) Execute(wctx *workflows.WorkflowContext) (*workflows.WorkflowResult, error) {
	if strings.Contains(wctx.Item.InputPath, "missing") {
		err := workflows.ErrSourceNotFound
		return &workflows.WorkflowResult{Success: false, Error: err.Error()}, err
	}
	return &workflows.WorkflowResult{Success: true, Outputs: map[string]string{"output_path": "/out/x.jpg"}}, nil
}

func TestConvertExecutor(t *testing.T) {
	exec := NewConvertExecutor(batch.NewRunner(stubWorkflow{}, 2))

	if err := exec.Execute(context.Background(), pipeline.NewConvertJob([]string{"/a.png", "/b.png"})); err != nil {
		t.Errorf("Execute: %v", err)
	}

	err := exec.Execute(context.Background(), pipeline.NewConvertJob([]string{"/a.png", "/missing.png"}))
	if !errors.Is(err, workflows.ErrSourceNotFound) {
		t.Errorf("err = %v, want ErrSourceNotFound", err)
	}
	if err != nil && !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v", err)
	}
}
