// Package worker runs game reconstructions off the job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/quality"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultGameTimeout    = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// ErrPanic marks a result whose reconstruction panicked.
var ErrPanic = errors.New("reconstruction panicked")

// Processor reconstructs one game.
type Processor interface {
	Reconstruct(ctx context.Context, game model.Game) model.Result
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, game model.Game) model.Result

// Reconstruct calls f.
func (f ProcessorFunc) Reconstruct(ctx context.Context, game model.Game) model.Result {
	return f(ctx, game)
}

// Store persists results. A later result for a game supersedes the earlier one.
type Store interface {
	Replace(ctx context.Context, result *model.Result) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// CompletionFunc is called once per job after the result is persisted.
type CompletionFunc func(job *queue.Job, result *model.Result)

// Worker processes jobs until its queue drains or it is shut down.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	store     Store
	name      string

	gameTimeout time.Duration
	onComplete  CompletionFunc

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options. store
// may be nil, in which case results are only reported.
func NewInMemoryWorker(q Queue, processor Processor, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		processor:   processor,
		store:       store,
		name:        "worker",
		gameTimeout: defaultGameTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
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
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, &job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob reconstructs one game, persists the result and reports it.
func (w *InMemoryWorker) processJob(ctx context.Context, job *queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	result := w.reconstruct(ctx, job)
	result.RunID = job.RunID
	if result.Digest == "" {
		result.Digest = job.Digest
	}

	if w.store != nil {
		if err := w.store.Replace(ctx, &result); err != nil {
			metrics.RecordErrorByComponent("worker", "store_error")
			w.logger.Error(ctx, "persisting result failed",
				logger.String("game_id", result.GameID),
				logger.Error(err),
			)
		}
	}

	w.logger.Debug(ctx, "game processed",
		logger.String("game_id", result.GameID),
		logger.String("status", string(result.Status)),
		logger.Int("possessions", len(result.Possessions)),
		logger.Duration("took", time.Since(start)),
	)

	if w.onComplete != nil {
		w.onComplete(job, &result)
	}
}

// reconstruct runs the processor under the per-game deadline. Panics and
// timeouts become failed results.
func (w *InMemoryWorker) reconstruct(ctx context.Context, job *queue.Job) (result model.Result) {
	gameCtx, cancel := context.WithTimeout(ctx, w.gameTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			metrics.RecordErrorByComponent("worker", "panic")
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			w.logger.Error(ctx, "reconstruction panicked",
				logger.String("game_id", job.Game.GameID),
				logger.Error(err),
			)
			result = failed(job.Game.GameID, err)
		}
	}()

	result = w.processor.Reconstruct(gameCtx, job.Game)
	if errors.Is(gameCtx.Err(), context.DeadlineExceeded) && result.Status == model.StatusFailed {
		metrics.RecordWorkerTimeout()
		metrics.RecordErrorByComponent("worker", "timeout")
		w.logger.Warn(ctx, "reconstruction timed out",
			logger.String("game_id", job.Game.GameID),
			logger.Duration("timeout", w.gameTimeout),
		)
	}
	return result
}

func failed(gameID string, err error) model.Result {
	return model.Result{
		GameID: gameID,
		Status: model.StatusFailed,
		Report: quality.Unprocessable(gameID, err),
		Err:    err.Error(),
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stopped atomic.Bool

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, processor Processor, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, processor, store, wopts...)
	}

	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop signals every worker and waits briefly for each to exit.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
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
		}
	}
	if timedOut {
		p.Stop()
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}
	p.stopped.Store(true)
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
