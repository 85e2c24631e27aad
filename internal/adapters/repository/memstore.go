package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/metrics"
)

const defaultShardCount = 16

type shard struct {
	mu    sync.RWMutex
	games map[string]model.Result
}

// MemoryStore is an in-memory Store sharded by game id.
type MemoryStore struct {
	shards     []*shard
	shardCount int
	count      atomic.Int64
	closed     atomic.Bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{games: make(map[string]model.Result)}
	}
	metrics.UpdateRepositoryGames(0)
	return s
}

func (s *MemoryStore) shardFor(gameID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(gameID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Replace implements Store.
func (s *MemoryStore) Replace(ctx context.Context, result *model.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := s.check(ctx); err != nil {
		return err
	}
	if result.GameID == "" {
		metrics.RecordRepositoryError()
		return fmt.Errorf("replace: %w", ErrNoGameID)
	}

	sh := s.shardFor(result.GameID)
	sh.mu.Lock()
	_, existed := sh.games[result.GameID]
	sh.games[result.GameID] = clone(result)
	sh.mu.Unlock()

	if !existed {
		metrics.UpdateRepositoryGames(int(s.count.Add(1)))
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, gameID string) (model.Result, error) {
	if err := s.check(ctx); err != nil {
		return model.Result{}, err
	}
	sh := s.shardFor(gameID)
	sh.mu.RLock()
	r, ok := sh.games[gameID]
	sh.mu.RUnlock()
	if !ok {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, ErrNotFound)
	}
	return clone(&r), nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]model.Summary, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Summary, 0, s.count.Load())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.games {
			out = append(out, r.Summarize())
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	return int(s.count.Load())
}

// Close implements Store. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// clone copies the derived record slices so callers cannot alias stored state.
func clone(r *model.Result) model.Result {
	c := *r
	c.Lineups = make([]model.LineupState, len(r.Lineups))
	for i, l := range r.Lineups {
		l.Players = slices.Clone(l.Players)
		c.Lineups[i] = l
	}
	c.Substitutions = slices.Clone(r.Substitutions)
	c.Possessions = slices.Clone(r.Possessions)
	c.Links = slices.Clone(r.Links)
	c.Report.Checks = make([]model.CheckResult, len(r.Report.Checks))
	for i, cr := range r.Report.Checks {
		cr.Violations = slices.Clone(cr.Violations)
		c.Report.Checks[i] = cr
	}
	return c
}
