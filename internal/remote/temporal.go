package remote

import (
	"context"
	"strings"

	"github.com/google/uuid"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/db"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/iopkg"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// temporalClient is the subset of client.Client we use; allows test fakes.
type temporalClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	CancelWorkflow(ctx context.Context, workflowID, runID string) error
}

// Config for the Temporal-backed matching service.
type Config struct {
	TaskQueue string
	// DatasetDir is where submitted datasets are staged for the worker,
	// e.g. file:///var/dedupe or s3://bucket/datasets.
	DatasetDir string
}

// TemporalService delegates dedupe jobs to workers via Temporal workflows.
// Progress flows back through the shared job-status store; the workflow
// execution state breaks ties when the store lags behind.
type TemporalService struct {
	tc    temporalClient
	store db.JobStore
	cfg   Config
	log   *zap.Logger
}

// NewTemporalService builds a service on an established Temporal client.
func NewTemporalService(tc client.Client, store db.JobStore, cfg Config, log *zap.Logger) *TemporalService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TemporalService{tc: tc, store: store, cfg: cfg, log: log}
}

// Submit registers the job, stages the dataset, and starts the workflow.
// The returned id is the external job id used for polling and cancellation.
func (s *TemporalService) Submit(ctx context.Context, req types.DedupeRequest) (string, error) {
	id := req.JobID
	if id == "" {
		id = uuid.NewString()
		req.JobID = id
	}
	if _, err := s.store.Create(ctx, id); err != nil {
		return "", err
	}
	uri := s.datasetURI(id)
	if err := iopkg.WriteJSON(ctx, uri, req); err != nil {
		return "", err
	}

	opts := client.StartWorkflowOptions{
		ID:        workflowID(id),
		TaskQueue: s.cfg.TaskQueue,
	}
	run, err := s.tc.ExecuteWorkflow(ctx, opts, "DedupeWorkflow", types.DelegatedParams{
		JobID:      id,
		DatasetURI: uri,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("delegated job submitted",
		zap.String("jobID", id),
		zap.String("workflowID", run.GetID()),
		zap.String("runID", run.GetRunID()),
		zap.String("dataset", uri))
	return id, nil
}

// GetStatus reads the persisted snapshot; when the store still shows a
// non-terminal state it cross-checks the workflow execution so jobs whose
// worker died without a final write still resolve.
func (s *TemporalService) GetStatus(ctx context.Context, id string) (types.Progress, error) {
	js, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Progress{}, err
	}
	p, err := js.Progress()
	if err != nil {
		return types.Progress{}, err
	}
	if p.Status.Terminal() {
		return p, nil
	}

	desc, err := s.tc.DescribeWorkflowExecution(ctx, workflowID(id), "")
	if err != nil || desc.WorkflowExecutionInfo == nil {
		// Store snapshot is the best answer we have.
		return p, nil
	}
	switch desc.WorkflowExecutionInfo.Status {
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		// The activity persists the completed snapshot before the workflow
		// finishes, so this branch only fires in the short write race.
		p.Status = types.StatusCompleted
		p.Percent = 100
		if p.Message == "" {
			p.Message = "Deduplication complete"
		}
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED, enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		p.Status = types.StatusCancelled
		p.Message = "Job cancelled"
	case enums.WORKFLOW_EXECUTION_STATUS_FAILED, enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		p.Status = types.StatusFailed
		if p.Error == "" {
			p.Error = "workflow execution " + strings.ToLower(desc.WorkflowExecutionInfo.Status.String())
		}
	}
	return p, nil
}

// Cancel requests workflow cancellation. The workflow may still complete
// if it was already past its last cancellation point; pollers observe
// whichever terminal state wins.
func (s *TemporalService) Cancel(ctx context.Context, id string) (types.CancelAck, error) {
	if err := s.tc.CancelWorkflow(ctx, workflowID(id), ""); err != nil {
		return types.CancelAck{Accepted: false, Message: err.Error()}, err
	}
	s.log.Info("delegated job cancellation requested", zap.String("jobID", id))
	return types.CancelAck{Accepted: true, Message: "cancellation requested"}, nil
}

func (s *TemporalService) datasetURI(id string) string {
	return strings.TrimSuffix(s.cfg.DatasetDir, "/") + "/" + id + ".json"
}

func workflowID(jobID string) string { return "dedupe-" + jobID }
