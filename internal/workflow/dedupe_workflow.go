// Package workflow defines the Temporal workflow for delegated dedupe jobs.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// DedupeWorkflow runs one delegated job as a single heartbeating activity.
// The activity owns all progress reporting through the job-status store;
// the workflow only supplies timeouts, retries, and cancellation plumbing.
// WaitForCancellation lets the activity emit its final cancelled snapshot
// before the workflow unwinds.
func DedupeWorkflow(ctx workflow.Context, p types.DelegatedParams) (types.Result, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 4 * time.Hour,
		HeartbeatTimeout:    5 * time.Minute,
		WaitForCancellation: true,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var res types.Result
	if err := workflow.ExecuteActivity(ctx, "Activities.RunDedupe", p).Get(ctx, &res); err != nil {
		return types.Result{}, err
	}
	return res, nil
}
