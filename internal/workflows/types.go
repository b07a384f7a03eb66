package workflows

import (
	"context"
	"fmt"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/google/uuid"
	"github.com/tendant/simple-image-manip/internal/dbosruntime"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// WorkflowContext contains context for workflow execution
type WorkflowContext struct {
	Ctx   context.Context
	Item  pipeline.ConvertItem
	RunID string
}

// WorkflowResult contains the result of workflow execution
type WorkflowResult struct {
	Success bool
	Error   string
	Outputs map[string]string
}

// Workflow defines the interface for processing workflows
type Workflow interface {
	// Execute runs the workflow
	Execute(wctx *WorkflowContext) (*WorkflowResult, error)

	// Name returns the workflow name
	Name() string
}

// WorkflowRunner executes workflows, directly or through DBOS
type WorkflowRunner struct {
	workflows   map[string]Workflow
	dbosRuntime *dbosruntime.Runtime
}

// NewWorkflowRunner creates a new workflow runner. dbosRuntime may be nil,
// in which case only synchronous execution is available.
func NewWorkflowRunner(dbosRuntime *dbosruntime.Runtime) *WorkflowRunner {
	runner := &WorkflowRunner{
		workflows:   make(map[string]Workflow),
		dbosRuntime: dbosRuntime,
	}

	// Register the DBOS workflow function
	if dbosRuntime != nil {
		dbos.RegisterWorkflow(dbosRuntime.Context(), runner.executeWorkflowDBOS)
	}

	return runner
}

// Register registers a workflow
func (r *WorkflowRunner) Register(job string, workflow Workflow) {
	r.workflows[job] = workflow
}

func (r *WorkflowRunner) lookup(job string) (Workflow, error) {
	if job == "" {
		job = pipeline.JobConvert
	}
	workflow, ok := r.workflows[job]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, job)
	}
	return workflow, nil
}

// Run executes a workflow for the item's job synchronously
func (r *WorkflowRunner) Run(wctx *WorkflowContext) (*WorkflowResult, error) {
	workflow, err := r.lookup(wctx.Item.Job)
	if err != nil {
		return &WorkflowResult{Success: false, Error: err.Error()}, err
	}

	return workflow.Execute(wctx)
}

// RunAsync enqueues a workflow for durable execution via DBOS
func (r *WorkflowRunner) RunAsync(ctx context.Context, item pipeline.ConvertItem) (string, error) {
	if r.dbosRuntime == nil {
		return "", ErrAsyncUnavailable
	}
	if item.Job == "" {
		item.Job = pipeline.JobConvert
	}

	// Workflow ID gives exactly-once semantics per submission
	workflowID := fmt.Sprintf("%s-%s", item.Job, uuid.New().String())
	item.RunID = workflowID

	handle, err := dbos.RunWorkflow[pipeline.ConvertItem, *WorkflowResult](
		r.dbosRuntime.Context(),
		r.executeWorkflowDBOS,
		item,
		dbos.WithWorkflowID(workflowID),
		dbos.WithQueue(r.dbosRuntime.QueueName()),
	)
	if err != nil {
		return "", err
	}

	return handle.GetWorkflowID(), nil
}

// executeWorkflowDBOS is the DBOS workflow function that wraps registered workflows
func (r *WorkflowRunner) executeWorkflowDBOS(dbosCtx dbos.DBOSContext, item pipeline.ConvertItem) (*WorkflowResult, error) {
	workflow, err := r.lookup(item.Job)
	if err != nil {
		return &WorkflowResult{Success: false, Error: err.Error()}, err
	}

	workflowID, err := dbosCtx.GetWorkflowID()
	if err != nil {
		return &WorkflowResult{Success: false, Error: err.Error()}, err
	}

	// DBOSContext implements context.Context
	wctx := &WorkflowContext{
		Ctx:   dbosCtx,
		Item:  item,
		RunID: workflowID,
	}

	return workflow.Execute(wctx)
}

// GetStatus retrieves the status of a durable workflow execution
func (r *WorkflowRunner) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	if r.dbosRuntime == nil {
		return nil, ErrAsyncUnavailable
	}
	return r.dbosRuntime.GetWorkflowStatus(ctx, runID)
}
