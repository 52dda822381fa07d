// Package job owns the lifecycle of one deduplication run: local in-process
// execution or delegation to an external matching service, with a uniform
// start/poll/cancel contract either way.
package job

import (
	"context"
	"sync"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/metrics"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// MatchingService is the boundary to an external probabilistic matcher. The
// transport behind it (Temporal, HTTP, anything else) is out of scope; only
// these three operations are required.
type MatchingService interface {
	Submit(ctx context.Context, req types.DedupeRequest) (jobID string, err error)
	GetStatus(ctx context.Context, jobID string) (types.Progress, error)
	Cancel(ctx context.Context, jobID string) (types.CancelAck, error)
}

// Handle is the caller's view of a running job, local or delegated.
type Handle interface {
	// ID identifies the job.
	ID() string
	// Updates streams progress snapshots in non-decreasing percentage order.
	// The channel closes after the single terminal snapshot.
	Updates() <-chan types.Progress
	// Status returns the most recent snapshot.
	Status() types.Progress
	// Cancel requests cooperative cancellation. Calling it after a terminal
	// state is a no-op.
	Cancel()
}

// tracker is the shared progress bookkeeping for both controller kinds:
// last-snapshot cache plus the one-way update channel.
type tracker struct {
	mu   sync.Mutex
	last types.Progress
	ch   chan types.Progress
}

func newTracker(buf int) *tracker {
	return &tracker{
		last: types.Progress{Status: types.StatusWaiting, Message: "Waiting to start"},
		ch:   make(chan types.Progress, buf),
	}
}

// observe records a snapshot and forwards it to the channel, closing the
// channel on the terminal one. Slow listeners never block the worker: when
// the buffer is full the snapshot is still recorded as Status but dropped
// from the stream, except terminal snapshots which are always delivered.
func (t *tracker) observe(p types.Progress) {
	t.mu.Lock()
	t.last = p
	t.mu.Unlock()

	if p.Status.Terminal() {
		for {
			select {
			case t.ch <- p:
				close(t.ch)
				metrics.JobsFinished.WithLabelValues(string(p.Status)).Inc()
				return
			default:
				// Drop the oldest buffered snapshot to make room.
				select {
				case <-t.ch:
				default:
				}
			}
		}
	}
	select {
	case t.ch <- p:
	default:
	}
}

func (t *tracker) status() types.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
