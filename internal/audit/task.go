package audit

import (
	"context"
	"sync"
)

// Outcome is what happened to a recorded event.
type Outcome int

const (
	// Pending means the delivery attempt has not finished.
	Pending Outcome = iota
	// Delivered means the API accepted the event.
	Delivered
	// Queued means delivery failed and the event waits in the local queue.
	Queued
	// Dropped means delivery failed and the event could not be queued either.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Queued:
		return "queued"
	case Dropped:
		return "dropped"
	}
	return "pending"
}

// Result is the settled state of a Task.
type Result struct {
	Outcome Outcome
	// ID is the server id of a delivered event.
	ID string
	// Err is the delivery failure for queued or dropped events.
	Err error
}

// Task is a handle on one Record call.
type Task struct {
	done   chan struct{}
	once   sync.Once
	result Result
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(r Result) {
	t.once.Do(func() {
		t.result = r
		close(t.done)
	})
}

// Done is closed once the task settles.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx ends. A cancelled wait returns a Pending result.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{Outcome: Pending}, ctx.Err()
	}
}
