// Package worker scores rosters in parallel off the job queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/snakedraft/internal/adapters/mq/queue"
	"github.com/okian/snakedraft/internal/domain/scoring"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/okian/snakedraft/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Scorer computes the fitness of one roster.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) (scoring.Result, error)
}

// Queue defines how the pool submits jobs and workers receive them.
type Queue interface {
	EnqueueWait(ctx context.Context, j queue.Job) error
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes scoring jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for scoring jobs.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	name   string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
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

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
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
			w.processJob(ctx, j)
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
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

// processJob scores one roster and reports exactly one outcome.
func (w *InMemoryWorker) processJob(ctx context.Context, j queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	res, err := w.scorer.Score(ctx, j.Input)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Error(ctx, "scoring failed",
			logger.Int("genome", j.Input.Genome),
			logger.Error(err),
		)
	}
	j.Sink <- queue.Outcome{Index: j.Index, Result: res, Err: err}
}

// Pool manages multiple workers and scores batches of rosters.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	started  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below 1 uses one worker per CPU.
func NewPool(workerCount int, queue Queue, scorer Scorer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		stopped: make(chan struct{}),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			scorer,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// ScoreAll scores every input and returns results index-aligned with
// inputs, whatever order the workers finish in. The first failing roster
// (by index) fails the batch.
func (p *Pool) ScoreAll(ctx context.Context, inputs []scoring.Input) ([]scoring.Result, error) {
	if !p.started.Load() {
		return nil, ErrNotStarted
	}
	start := time.Now()

	sink := make(chan queue.Outcome, len(inputs))
	for i, in := range inputs {
		if err := p.queue.EnqueueWait(ctx, queue.Job{Index: i, Input: in, Sink: sink}); err != nil {
			return nil, fmt.Errorf("enqueue roster %d: %w", i, err)
		}
	}

	results := make([]scoring.Result, len(inputs))
	errs := make([]error, len(inputs))
	for n := 0; n < len(inputs); n++ {
		select {
		case o := <-sink:
			results[o.Index] = o.Result
			errs[o.Index] = o.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stopped:
			return nil, ErrStopped
		}
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("roster %d: %w", i, err)
		}
	}

	metrics.RecordScoringDuration(float64(time.Since(start).Nanoseconds()) / 1e6)
	return results, nil
}

// Stop signals every worker to stop without waiting.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
		for _, w := range p.workers {
			w.stop()
		}
		metrics.UpdateWorkerActiveCount(0)
	})
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.Stop()
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
