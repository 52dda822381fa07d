package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/progress"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// DefaultPollInterval is the delegated-mode status poll cadence.
const DefaultPollInterval = 2 * time.Second

// DelegatedJob tracks a run performed by an external matching service. The
// controller computes nothing itself: it submits, polls until the reported
// status is terminal, and translates external snapshots into the same
// progress contract local jobs use.
type DelegatedJob struct {
	id  string
	svc MatchingService
	log *zap.Logger
	t   *tracker

	mu        sync.Mutex
	cancelled bool // cancel already requested upstream

	stop func() // halts the poll loop
}

// DelegatedOptions tunes the poll loop.
type DelegatedOptions struct {
	// PollInterval defaults to DefaultPollInterval; 1-3s is recommended.
	PollInterval time.Duration
}

// StartDelegated submits the request to the external service and begins
// polling. Submit failures surface synchronously; the job never starts.
func StartDelegated(ctx context.Context, svc MatchingService, log *zap.Logger, req types.DedupeRequest, opts DelegatedOptions) (*DelegatedJob, error) {
	if log == nil {
		log = zap.NewNop()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	jobID, err := svc.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	pollCtx, stop := context.WithCancel(context.Background())
	j := &DelegatedJob{id: jobID, svc: svc, log: log, t: newTracker(16), stop: stop}
	emit := progress.NewEmitter(j.t.observe)

	go j.poll(pollCtx, emit, interval)
	return j, nil
}

// poll drives the delegated state machine. Each cycle reads the external
// status and forwards it; the loop halts itself on the first terminal
// snapshot, so status queries never continue past the end of a job.
func (j *DelegatedJob) poll(ctx context.Context, emit *progress.Emitter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	emit.Processing(0, "Submitted to matching service")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p, err := j.svc.GetStatus(ctx, j.id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			j.log.Warn("status poll failed", zap.String("jobID", j.id), zap.Error(err))
			emit.Fail("Matching service unreachable", err.Error())
			return
		}

		switch {
		case p.Status == types.StatusCompleted:
			// A completion observed after a cancel request wins the race;
			// the external result is honored as final.
			emit.Processing(p.Percent, p.Message)
			emit.Complete(completedMessage(p), p.Result)
			return
		case p.Status == types.StatusFailed:
			emit.Fail(p.Message, p.Error)
			return
		case p.Status == types.StatusCancelled:
			emit.Cancelled(cancelMessage(p))
			return
		default:
			msg := p.Message
			if j.cancelRequested() && msg != "" {
				msg += " (cancellation requested)"
			}
			emit.Processing(p.Percent, msg)
		}
	}
}

func (j *DelegatedJob) ID() string { return j.id }

// Updates returns the job's progress stream.
func (j *DelegatedJob) Updates() <-chan types.Progress { return j.t.ch }

// Status returns the latest snapshot.
func (j *DelegatedJob) Status() types.Progress { return j.t.status() }

// Cancel asks the external service to cancel and keeps polling: a cancel
// request is not assumed to take effect immediately, and a late completion
// is treated as final. Calls after a terminal state are no-ops.
func (j *DelegatedJob) Cancel() {
	j.mu.Lock()
	already := j.cancelled
	j.cancelled = true
	j.mu.Unlock()
	if already || j.Status().Status.Terminal() {
		return
	}

	ack, err := j.svc.Cancel(context.Background(), j.id)
	if err != nil {
		j.log.Warn("cancel request failed", zap.String("jobID", j.id), zap.Error(err))
		return
	}
	j.log.Info("cancel requested", zap.String("jobID", j.id), zap.Bool("accepted", ack.Accepted), zap.String("message", ack.Message))
}

// Wait blocks until the job reaches a terminal state or ctx expires.
func (j *DelegatedJob) Wait(ctx context.Context) (types.Progress, error) {
	for {
		select {
		case <-ctx.Done():
			j.stop()
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

func (j *DelegatedJob) cancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func completedMessage(p types.Progress) string {
	if p.Message != "" {
		return p.Message
	}
	return "Deduplication complete"
}

func cancelMessage(p types.Progress) string {
	if p.Message != "" {
		return p.Message
	}
	return "Job cancelled by matching service"
}
