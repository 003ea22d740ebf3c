// Package audit delivers history events to the API, parking them in a durable queue when delivery fails.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lab-inventory-backend/internal/model"
)

// Sink accepts history events. The remote API client implements it.
type Sink interface {
	RecordHistory(ctx context.Context, ev model.HistoryEvent) (string, error)
}

// Queue is the durable buffer of undelivered events.
type Queue interface {
	Enqueue(ctx context.Context, ev model.HistoryEvent) error
	Drain(ctx context.Context, deliver func(context.Context, model.HistoryEvent) error) (delivered, remaining int, err error)
}

// ErrClosed is the error carried by events recorded after Close. They are queued without a delivery attempt.
var ErrClosed = errors.New("audit recorder closed")

type job struct {
	ev   model.HistoryEvent
	task *Task
}

// Recorder manages a pool of workers that deliver history events.
type Recorder struct {
	size   int
	jobs   chan job
	sink   Sink
	queue  Queue
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	ctx     context.Context
	closed  bool
	wg      sync.WaitGroup
	replays sync.Mutex
}

// NewRecorder creates a recorder with size workers.
func NewRecorder(size int, sink Sink, queue Queue, logger *zap.Logger) *Recorder {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		size:   size,
		jobs:   make(chan job, size*16),
		sink:   sink,
		queue:  queue,
		logger: logger,
		now:    time.Now,
		ctx:    context.Background(),
	}
}

// Start launches the worker goroutines. Cancelling ctx aborts in-flight deliveries; their events are queued.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	for i := 0; i < r.size; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

func (r *Recorder) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.logger.Debug("Audit worker started", zap.Int("worker", id))
	for j := range r.jobs {
		r.deliver(ctx, j)
	}
	r.logger.Debug("Audit worker stopped", zap.Int("worker", id))
}

// Record stamps ev with the current time and hands it to the pool. It never waits on the network: when
// every worker is busy and the buffer is full, the event is delivered on its own goroutine. After Close
// the event goes straight to the queue.
func (r *Recorder) Record(ev model.HistoryEvent) *Task {
	ev.CreatedAt = r.now().UTC()
	t := newTask()
	j := job{ev: ev, task: t}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.park(context.Background(), j, ErrClosed)
		return t
	}

	select {
	case r.jobs <- j:
	default:
		r.wg.Add(1)
		go func(ctx context.Context) {
			defer r.wg.Done()
			r.deliver(ctx, j)
		}(r.ctx)
	}
	return t
}

// deliver makes one delivery attempt and queues the event if it fails.
func (r *Recorder) deliver(ctx context.Context, j job) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Audit delivery panicked", zap.Any("panic", p))
			j.task.finish(Result{Outcome: Dropped, Err: fmt.Errorf("audit delivery panicked: %v", p)})
		}
	}()

	id, err := r.sink.RecordHistory(ctx, j.ev)
	if err == nil {
		j.task.finish(Result{Outcome: Delivered, ID: id})
		return
	}
	r.park(ctx, j, err)
}

// park queues an event that was not delivered because of cause.
func (r *Recorder) park(ctx context.Context, j job, cause error) {
	// The queue write must survive a cancelled delivery.
	if qerr := r.queue.Enqueue(context.WithoutCancel(ctx), j.ev); qerr != nil {
		r.logger.Error("Failed to queue undelivered history event",
			zap.String("action", j.ev.Action),
			zap.String("entity_id", j.ev.EntityID),
			zap.Error(qerr),
		)
		j.task.finish(Result{Outcome: Dropped, Err: errors.Join(cause, qerr)})
		return
	}
	r.logger.Info("History event queued for replay",
		zap.String("action", j.ev.Action),
		zap.String("entity_id", j.ev.EntityID),
		zap.Error(cause),
	)
	j.task.finish(Result{Outcome: Queued, Err: cause})
}

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	Delivered int
	Remaining int
}

// Replay tries to deliver every queued event, oldest first. Failures stay queued for the next pass.
// Replays within one process are serialized.
func (r *Recorder) Replay(ctx context.Context) (ReplayResult, error) {
	r.replays.Lock()
	defer r.replays.Unlock()

	delivered, remaining, err := r.queue.Drain(ctx, func(ctx context.Context, ev model.HistoryEvent) error {
		_, err := r.sink.RecordHistory(ctx, ev)
		return err
	})
	if err != nil {
		return ReplayResult{Delivered: delivered, Remaining: remaining}, fmt.Errorf("replay audit queue: %w", err)
	}
	if delivered > 0 || remaining > 0 {
		r.logger.Info("Audit queue replayed", zap.Int("delivered", delivered), zap.Int("remaining", remaining))
	}
	return ReplayResult{Delivered: delivered, Remaining: remaining}, nil
}

// Close stops accepting pooled work and waits for in-flight deliveries to finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}
