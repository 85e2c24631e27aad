// Package service runs game reconstructions in batches: games are
// deduplicated, queued, reconstructed by a worker pool and persisted.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/domain/dedupe"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

const (
	defaultQueueSize   = 10_000
	defaultDedupeSize  = 50_000
	defaultGameTimeout = 5 * time.Second
	stopTimeout        = 30 * time.Second
	retryBackoff       = 5 * time.Millisecond
)

// Sentinel submission errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrDuplicate  = errors.New("game already submitted with identical input")
	ErrQueueFull  = errors.New("game queue full")
)

// Service reconstructs submitted games asynchronously.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	pipeline *Pipeline

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	gameTimeout    time.Duration
	fuzzyThreshold float64
	runID          string
	onResult       func(*model.Result)

	// State
	started  bool
	pending  sync.WaitGroup
	latestMu sync.Mutex
	latest   map[string]model.Summary

	submitted  atomic.Int64
	processed  atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued games.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the duplicate-submission cache. Zero keeps
// every submission.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithGameTimeout bounds the reconstruction of one game.
func WithGameTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.gameTimeout = d
		}
	}
}

// WithFuzzyThreshold sets the roster resolver's fuzzy stage threshold.
func WithFuzzyThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.fuzzyThreshold = t
		}
	}
}

// WithStore persists results to store instead of an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRunID tags results with id instead of a generated one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithResultHook calls fn for every finished game, from a worker goroutine.
func WithResultHook(fn func(*model.Result)) Option {
	return func(s *Service) {
		s.onResult = fn
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		gameTimeout:    defaultGameTimeout,
		fuzzyThreshold: roster.DefaultFuzzyThreshold,
		runID:          uuid.NewString(),
		latest:         make(map[string]model.Summary),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID returns the id tagging this service's results.
func (s *Service) RunID() string { return s.runID }

// Store returns the result store.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pipeline = NewPipeline(WithResolverThreshold(s.fuzzyThreshold))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.pipeline, s.store,
		worker.WithGameTimeout(s.gameTimeout),
		worker.WithCompletion(s.complete),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "reconstruction service started",
		logger.String("run_id", s.runID),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Duration("game_timeout", s.gameTimeout),
		logger.Float64("fuzzy_threshold", s.fuzzyThreshold),
	)
	return nil
}

// Submit queues game for reconstruction. It returns ErrDuplicate when the
// same input was already submitted and ErrQueueFull when the queue is full.
func (s *Service) Submit(ctx context.Context, game model.Game) error { //nolint:gocritic // hugeParam: the game is queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}

	digest := InputDigest(&game)
	if s.deduper.SeenAndRecord(ctx, game.GameID, digest) {
		s.duplicates.Add(1)
		metrics.RecordGameDuplicate()
		s.logger.Debug(ctx, "duplicate game skipped", logger.String("game_id", game.GameID))
		return fmt.Errorf("%s: %w", game.GameID, ErrDuplicate)
	}

	s.pending.Add(1)
	job := queue.Job{Game: game, Digest: digest, RunID: s.runID}
	if !s.queue.Enqueue(ctx, job) {
		s.pending.Done()
		s.deduper.Unrecord(ctx, game.GameID, digest)
		return fmt.Errorf("%s: %w", game.GameID, ErrQueueFull)
	}
	s.submitted.Add(1)
	return nil
}

// complete runs on a worker after each game.
func (s *Service) complete(_ *queue.Job, result *model.Result) {
	defer s.pending.Done()

	s.processed.Add(1)
	if result.Status == model.StatusFailed {
		s.failed.Add(1)
	}
	s.latestMu.Lock()
	s.latest[result.GameID] = result.Summarize()
	s.latestMu.Unlock()
	s.logger.Debug(context.Background(), "game reconstructed",
		logger.String("game_id", result.GameID),
		logger.String("status", string(result.Status)),
		logger.Bool("quality_flag", result.Report.QualityFlag),
	)

	if s.onResult != nil {
		s.onResult(result)
	}
}

// Wait blocks until every submitted game has been processed or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait: %w", ctx.Err())
	}
}

// Process submits games, waits for them and returns one summary per distinct
// game id in input order. A full queue is retried until ctx ends.
func (s *Service) Process(ctx context.Context, games []model.Game) ([]model.Summary, error) {
	var ids []string
	seen := make(map[string]bool, len(games))
	for i := range games {
		if err := s.submitWithRetry(ctx, games[i]); err != nil && !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		if !seen[games[i].GameID] {
			seen[games[i].GameID] = true
			ids = append(ids, games[i].GameID)
		}
	}
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}

	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	out := make([]model.Summary, 0, len(ids))
	for _, id := range ids {
		if sum, ok := s.latest[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

func (s *Service) submitWithRetry(ctx context.Context, game model.Game) error { //nolint:gocritic // hugeParam: passed through to Submit
	for {
		err := s.Submit(ctx, game)
		if !errors.Is(err, ErrQueueFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("submit %s: %w", game.GameID, ctx.Err())
		case <-time.After(retryBackoff):
		}
	}
}

// Summaries returns the latest summary of every processed game by game id.
func (s *Service) Summaries() []model.Summary {
	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	out := make([]model.Summary, 0, len(s.latest))
	for _, sum := range s.latest {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}

// Stop drains the queue and shuts the workers down. The store stays open so
// results can still be read; a store passed with WithStore is closed by its
// owner.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping reconstruction service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "reconstruction service stopped",
		logger.Int64("processed", s.processed.Load()),
		logger.Int64("failed", s.failed.Load()),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"runID":       s.runID,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"submitted":   s.submitted.Load(),
		"processed":   s.processed.Load(),
		"failed":      s.failed.Load(),
		"duplicates":  s.duplicates.Load(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		games := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedGames"] = games

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryGames(games)
	}
	return stats
}
