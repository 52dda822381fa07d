// Package progress converts pipeline milestones into monotonic status
// snapshots for whichever listener is attached.
package progress

import (
	"sync"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Sink receives progress snapshots. Each snapshot is a fresh immutable value;
// sinks never see a mutated shared object.
type Sink func(types.Progress)

// Emitter delivers snapshots to a sink with two guarantees: percentages never
// regress within a job, and nothing is emitted after the single terminal
// snapshot.
type Emitter struct {
	mu       sync.Mutex
	sink     Sink
	percent  float64
	terminal bool
}

// NewEmitter wraps a sink. A nil sink discards snapshots.
func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = func(types.Progress) {}
	}
	return &Emitter{sink: sink}
}

// Processing emits a non-terminal snapshot at the given percentage. A
// percentage below the last emitted one is clamped up to it.
func (e *Emitter) Processing(percent float64, message string) {
	e.emit(types.Progress{Status: types.StatusProcessing, Percent: percent, Message: message})
}

// Complete emits the terminal completed snapshot at 100%.
func (e *Emitter) Complete(message string, result *types.Result) {
	e.emit(types.Progress{Status: types.StatusCompleted, Percent: 100, Message: message, Result: result})
}

// Fail emits the terminal failed snapshot. The error description must be
// non-empty and human-readable.
func (e *Emitter) Fail(message, errDesc string) {
	if errDesc == "" {
		errDesc = "internal error"
	}
	e.emit(types.Progress{Status: types.StatusFailed, Percent: e.current(), Message: message, Error: errDesc})
}

// Cancelled emits the terminal cancelled snapshot.
func (e *Emitter) Cancelled(message string) {
	e.emit(types.Progress{Status: types.StatusCancelled, Percent: e.current(), Message: message})
}

// Terminal reports whether a terminal snapshot has been emitted.
func (e *Emitter) Terminal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminal
}

func (e *Emitter) current() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.percent
}

func (e *Emitter) emit(p types.Progress) {
	e.mu.Lock()
	if e.terminal {
		e.mu.Unlock()
		return
	}
	if p.Percent < e.percent {
		p.Percent = e.percent
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	e.percent = p.Percent
	if p.Status.Terminal() {
		e.terminal = true
	}
	e.mu.Unlock()

	e.sink(p)
}
