package workflow

import (
	"context"
	"errors"
	"testing"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

func TestDedupeWorkflowReturnsActivityResult(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	run := func(ctx context.Context, p types.DelegatedParams) (types.Result, error) {
		return types.Result{JobID: p.JobID, OriginalRows: 3, UniqueRows: 2, DuplicateRows: 1}, nil
	}
	env.RegisterActivityWithOptions(run, activity.RegisterOptions{Name: "Activities.RunDedupe"})

	env.ExecuteWorkflow(DedupeWorkflow, types.DelegatedParams{JobID: "j1", DatasetURI: "file:///tmp/j1.json"})
	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res types.Result
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.JobID != "j1" || res.DuplicateRows != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDedupeWorkflowPropagatesActivityFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	run := func(ctx context.Context, p types.DelegatedParams) (types.Result, error) {
		return types.Result{}, errors.New("dataset unavailable")
	}
	env.RegisterActivityWithOptions(run, activity.RegisterOptions{Name: "Activities.RunDedupe"})

	env.ExecuteWorkflow(DedupeWorkflow, types.DelegatedParams{JobID: "j2"})
	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error")
	}
}
