// Package worker runs queued report jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/youss97/transportBackend/internal/adapters/mq/queue"
	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Source is where workers receive jobs from.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Queue is the full queue contract the pool needs to accept submissions.
type Queue interface {
	Source
	Enqueue(ctx context.Context, j queue.Job) bool
	EnqueueWait(ctx context.Context, j queue.Job) error
	IsClosed() bool
	Close() error
}

// Worker executes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Source.
type InMemoryWorker struct {
	source Source
	name   string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called, or the source channel is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown signals the worker and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	res := queue.Result{JobID: j.ID}
	res.Value, res.Err = w.run(ctx, j)
	if res.Err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "job_error")
		w.logger.Debug(ctx, "job failed", logger.String("job", j.ID), logger.Error(res.Err))
	}

	if j.Reply == nil {
		return
	}
	select {
	case j.Reply <- res:
	case <-ctx.Done():
		w.logger.Warn(ctx, "reply dropped", logger.String("job", j.ID))
	}
}

func (w *InMemoryWorker) run(ctx context.Context, j queue.Job) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.ID, r)
		}
	}()
	if j.Run == nil {
		return nil, fmt.Errorf("job %s has nothing to run", j.ID)
	}
	return j.Run(ctx)
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count picks a default
// based on the number of CPUs.
func NewPool(workerCount int, q Queue) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(q, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit queues j without blocking.
func (p *Pool) Submit(ctx context.Context, j queue.Job) error {
	if p.queue.Enqueue(ctx, j) {
		return nil
	}
	switch {
	case p.queue.IsClosed():
		return queue.ErrClosed
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return queue.ErrFull
	}
}

// SubmitWait queues j, waiting for room while ctx allows. Bound ctx with a
// deadline to turn a saturated pool into an error.
func (p *Pool) SubmitWait(ctx context.Context, j queue.Job) error {
	err := p.Submit(ctx, j)
	if !errors.Is(err, queue.ErrFull) {
		return err
	}
	return p.queue.EnqueueWait(ctx, j)
}

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them. Workers still busy when ctx or the pool timeout expires
// are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
