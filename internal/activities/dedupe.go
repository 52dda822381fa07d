// Package activities holds the Temporal activity implementations for
// delegated dedupe jobs.
package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/db"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/iopkg"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/progress"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Config tunes worker-side execution.
type Config struct {
	// ScratchDir is local disk for seen-pair spill stores.
	ScratchDir string
	// SpillPairs overrides the engine's spill threshold; zero keeps the default.
	SpillPairs int
}

// Activities bundles the worker's dependencies.
type Activities struct {
	cfg   Config
	store db.JobStore
	log   *zap.Logger
}

// New builds the activity set. A nil logger is replaced with a no-op one.
func New(cfg Config, store db.JobStore, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activities{cfg: cfg, store: store, log: log}
}

// RunDedupe executes one delegated job end to end: load the staged dataset,
// run the pipeline, and persist every progress snapshot so pollers see the
// same stream a local run would produce. Temporal cancellation propagates
// through ctx and stops the pipeline between blocks.
func (a *Activities) RunDedupe(ctx context.Context, p types.DelegatedParams) (types.Result, error) {
	var req types.DedupeRequest
	if err := iopkg.ReadJSON(ctx, p.DatasetURI, &req); err != nil {
		err = fmt.Errorf("load dataset %s: %w", p.DatasetURI, err)
		a.persist(p.JobID, types.Progress{Status: types.StatusFailed, Message: "Dataset unavailable", Error: err.Error()})
		return types.Result{}, err
	}
	req.JobID = p.JobID

	emit := progress.NewEmitter(func(snap types.Progress) {
		a.persist(p.JobID, snap)
		if activity.IsActivity(ctx) {
			activity.RecordHeartbeat(ctx, snap.Percent)
		}
	})

	eng := engine.New(a.log, engine.Options{ScratchDir: a.cfg.ScratchDir, SpillPairs: a.cfg.SpillPairs})
	res, err := eng.Run(ctx, req, emit)
	if err != nil {
		// Validation errors return before any snapshot; record them so the
		// job row does not stay in waiting forever.
		if !emit.Terminal() {
			emit.Fail("Job rejected", err.Error())
		}
		return types.Result{}, err
	}
	return *res, nil
}

// persist writes a snapshot with a fresh context: terminal snapshots must
// land even when the activity context was already cancelled.
func (a *Activities) persist(jobID string, snap types.Progress) {
	if err := a.store.UpdateProgress(context.Background(), jobID, snap); err != nil {
		a.log.Warn("progress persist failed", zap.String("jobID", jobID), zap.Error(err))
	}
}
