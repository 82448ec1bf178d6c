// Package dispatch serializes hotkey presses into sequential pipeline runs.
//
// Presses land in a single-slot trigger channel with a non-blocking send: if
// a trigger is already pending the press is dropped. One worker goroutine
// takes triggers one at a time and runs the pipeline to completion before
// taking the next, so runs never overlap and at most one is ever queued.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// State is the worker state.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// RunFunc executes one pipeline run. The context it receives is never
// cancelled; a started run always finishes.
type RunFunc func(ctx context.Context) error

// Stats is a point-in-time view of the dispatcher counters.
type Stats struct {
	State     State  `json:"state"`
	Accepted  uint64 `json:"accepted"`
	Dropped   uint64 `json:"dropped"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// Dispatcher owns the trigger slot and the worker loop.
type Dispatcher struct {
	run     RunFunc
	trigger chan struct{}

	state     atomic.Int32
	accepted  atomic.Uint64
	dropped   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// New returns a Dispatcher that calls run for every accepted trigger.
func New(run RunFunc) *Dispatcher {
	return &Dispatcher{
		run:     run,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests a pipeline run. It never blocks and is safe to call from
// any goroutine, including a platform hotkey callback. It reports whether
// the press was queued; false means a run was already pending and this press
// was dropped.
func (d *Dispatcher) Trigger() bool {
	select {
	case d.trigger <- struct{}{}:
		d.accepted.Add(1)
		return true
	default:
		d.dropped.Add(1)
		slog.Debug("trigger dropped, a run is already pending")
		return false
	}
}

// Run is the worker loop. It blocks until ctx is cancelled; cancellation is
// only observed between runs.
func (d *Dispatcher) Run(ctx context.Context) error {
	runCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.trigger:
		}
		d.state.Store(int32(Running))
		err := d.runOnce(runCtx)
		d.state.Store(int32(Idle))

		if err != nil {
			d.failed.Add(1)
			slog.Debug("run finished with error", "err", err)
		} else {
			d.completed.Add(1)
		}
	}
}

func (d *Dispatcher) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline run panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.run(ctx)
}

// State returns the current worker state.
func (d *Dispatcher) State() State { return State(d.state.Load()) }

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		State:     d.State(),
		Accepted:  d.accepted.Load(),
		Dropped:   d.dropped.Load(),
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
	}
}
