package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/progress"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// LocalJob runs the pipeline on a dedicated worker goroutine, communicating
// with the caller exclusively through one-way progress snapshots.
type LocalJob struct {
	id     string
	t      *tracker
	cancel context.CancelFunc
	once   sync.Once
}

// StartLocal validates the request synchronously and, if it is well formed,
// launches the pipeline. Configuration errors are returned immediately and
// the job never enters processing.
func StartLocal(eng *engine.Engine, log *zap.Logger, req types.DedupeRequest) (*LocalJob, error) {
	if err := engine.Validate(req.Records, req.Columns, req.Config); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &LocalJob{id: req.JobID, t: newTracker(16), cancel: cancel}
	emit := progress.NewEmitter(j.t.observe)

	go func() {
		defer func() {
			// A panicking stage must never kill the worker silently; the
			// caller always receives a terminal snapshot.
			if r := recover(); r != nil {
				log.Error("pipeline panic", zap.String("jobID", j.id), zap.Any("panic", r))
				emit.Fail("Deduplication failed", fmt.Sprintf("internal failure: %v", r))
			}
		}()
		emit.Processing(0, "Starting deduplication")
		if _, err := eng.Run(ctx, req, emit); err != nil && !emit.Terminal() {
			emit.Fail("Deduplication failed", err.Error())
		}
	}()
	return j, nil
}

func (j *LocalJob) ID() string { return j.id }

// Updates returns the job's progress stream.
func (j *LocalJob) Updates() <-chan types.Progress { return j.t.ch }

// Status returns the latest snapshot.
func (j *LocalJob) Status() types.Progress { return j.t.status() }

// Cancel requests cooperative cancellation; the pipeline stops between block
// iterations. Repeat calls and calls after a terminal state are no-ops.
func (j *LocalJob) Cancel() {
	j.once.Do(j.cancel)
}

// Wait blocks until the job reaches a terminal state or ctx expires.
func (j *LocalJob) Wait(ctx context.Context) (types.Progress, error) {
	for {
		select {
		case <-ctx.Done():
			return j.Status(), ctx.Err()
		case p, ok := <-j.t.ch:
			if !ok {
				return j.Status(), nil
			}
			if p.Status.Terminal() {
				return p, nil
			}
		}
	}
}
