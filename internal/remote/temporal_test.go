package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	enums "go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/db"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/iopkg"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

type fakeRun struct{ id, runID string }

func (f fakeRun) GetID() string    { return f.id }
func (f fakeRun) GetRunID() string { return f.runID }
func (f fakeRun) Get(ctx context.Context, v interface{}) error {
	return nil
}
func (f fakeRun) GetWithOptions(ctx context.Context, v interface{}, o client.WorkflowRunGetOptions) error {
	return nil
}

type fakeTemporal struct {
	startedID   string
	startedArgs []interface{}
	execErr     error
	descStatus  enums.WorkflowExecutionStatus
	descErr     error
	cancelledID string
	cancelErr   error
}

func (f *fakeTemporal) ExecuteWorkflow(ctx context.Context, opts client.StartWorkflowOptions, wf interface{}, args ...interface{}) (client.WorkflowRun, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.startedID = opts.ID
	f.startedArgs = args
	return fakeRun{id: opts.ID, runID: "run-1"}, nil
}

func (f *fakeTemporal) DescribeWorkflowExecution(ctx context.Context, wfID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	if f.descErr != nil {
		return nil, f.descErr
	}
	return &workflowservice.DescribeWorkflowExecutionResponse{
		WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{Status: f.descStatus},
	}, nil
}

func (f *fakeTemporal) CancelWorkflow(ctx context.Context, wfID, runID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelledID = wfID
	return nil
}

type memStore struct {
	rows map[string]db.JobStatus
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]db.JobStatus)} }

func (m *memStore) Create(ctx context.Context, id string) (db.JobStatus, error) {
	j := db.JobStatus{ID: id, Status: "waiting"}
	m.rows[id] = j
	return j, nil
}

func (m *memStore) UpdateProgress(ctx context.Context, id string, p types.Progress) error {
	j, ok := m.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	j.Status = string(p.Status)
	j.Percent = p.Percent
	j.Message = p.Message
	if p.Error != "" {
		e := p.Error
		j.Error = &e
	}
	m.rows[id] = j
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (db.JobStatus, error) {
	j, ok := m.rows[id]
	if !ok {
		return db.JobStatus{}, db.ErrNotFound
	}
	return j, nil
}

func newTestService(t *testing.T, tc temporalClient) (*TemporalService, *memStore) {
	store := newMemStore()
	svc := &TemporalService{
		tc:    tc,
		store: store,
		cfg:   Config{TaskQueue: "dedupe", DatasetDir: "file://" + t.TempDir()},
		log:   zap.NewNop(),
	}
	return svc, store
}

func TestSubmitStagesDatasetAndStartsWorkflow(t *testing.T) {
	ft := &fakeTemporal{}
	svc, store := newTestService(t, ft)

	req := types.DedupeRequest{
		Records: []types.Record{{"name": types.String("alice")}},
		Columns: []types.MappedColumn{{SourceColumn: "name", Kind: types.CompareFuzzy, Weight: 1}},
		Config:  types.DedupeConfig{Threshold: 0.8},
	}
	id, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("empty job id")
	}
	if ft.startedID != "dedupe-"+id {
		t.Fatalf("workflow id %q", ft.startedID)
	}
	if _, ok := store.rows[id]; !ok {
		t.Fatal("job row not created")
	}

	// The staged dataset must round-trip the request for the worker.
	params, ok := ft.startedArgs[0].(types.DelegatedParams)
	if !ok {
		t.Fatalf("workflow arg type %T", ft.startedArgs[0])
	}
	var got types.DedupeRequest
	if err := iopkg.ReadJSON(context.Background(), params.DatasetURI, &got); err != nil {
		t.Fatalf("read staged dataset: %v", err)
	}
	if got.JobID != id || len(got.Records) != 1 {
		t.Fatalf("staged request mismatch: %+v", got)
	}
	if filepath.Base(params.DatasetURI) != id+".json" {
		t.Fatalf("dataset uri %q", params.DatasetURI)
	}
}

func TestSubmitWorkflowStartFailure(t *testing.T) {
	ft := &fakeTemporal{execErr: errors.New("temporal down")}
	svc, _ := newTestService(t, ft)

	_, err := svc.Submit(context.Background(), types.DedupeRequest{})
	if err == nil {
		t.Fatal("expected submit error")
	}
}

func TestGetStatusPrefersStoreSnapshot(t *testing.T) {
	ft := &fakeTemporal{descStatus: enums.WORKFLOW_EXECUTION_STATUS_RUNNING}
	svc, store := newTestService(t, ft)
	ctx := context.Background()

	store.rows["j1"] = db.JobStatus{ID: "j1", Status: "processing", Percent: 40, Message: "Comparing records"}
	p, err := svc.GetStatus(ctx, "j1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if p.Status != types.StatusProcessing || p.Percent != 40 {
		t.Fatalf("snapshot: %+v", p)
	}
}

func TestGetStatusResolvesDeadWorkflow(t *testing.T) {
	ft := &fakeTemporal{descStatus: enums.WORKFLOW_EXECUTION_STATUS_TERMINATED}
	svc, store := newTestService(t, ft)
	ctx := context.Background()

	store.rows["j1"] = db.JobStatus{ID: "j1", Status: "processing", Percent: 70}
	p, err := svc.GetStatus(ctx, "j1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if p.Status != types.StatusCancelled {
		t.Fatalf("status %q; want cancelled", p.Status)
	}
}

func TestGetStatusFailedWithoutFinalWrite(t *testing.T) {
	ft := &fakeTemporal{descStatus: enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT}
	svc, store := newTestService(t, ft)
	ctx := context.Background()

	store.rows["j1"] = db.JobStatus{ID: "j1", Status: "processing", Percent: 55}
	p, err := svc.GetStatus(ctx, "j1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if p.Status != types.StatusFailed || p.Error == "" {
		t.Fatalf("snapshot: %+v", p)
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc, _ := newTestService(t, &fakeTemporal{})
	if _, err := svc.GetStatus(context.Background(), "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("err %v; want ErrNotFound", err)
	}
}

func TestCancelForwardsToWorkflow(t *testing.T) {
	ft := &fakeTemporal{}
	svc, _ := newTestService(t, ft)

	ack, err := svc.Cancel(context.Background(), "j1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !ack.Accepted {
		t.Fatal("cancel not accepted")
	}
	if ft.cancelledID != "dedupe-j1" {
		t.Fatalf("cancelled workflow %q", ft.cancelledID)
	}
}

func TestCancelFailure(t *testing.T) {
	ft := &fakeTemporal{cancelErr: errors.New("not found")}
	svc, _ := newTestService(t, ft)

	ack, err := svc.Cancel(context.Background(), "j1")
	if err == nil {
		t.Fatal("expected cancel error")
	}
	if ack.Accepted {
		t.Fatal("failed cancel reported accepted")
	}
}
