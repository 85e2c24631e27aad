// Package dedupe suppresses repeated submissions of the same game input.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records which (game, input digest) pairs were already submitted.
// A game resubmitted with a different input is not a duplicate.
type Deduper interface {
	// SeenAndRecord atomically checks if the pair was seen and records it if not.
	// Returns true if it was already seen.
	SeenAndRecord(ctx context.Context, gameID, digest string) bool

	// Unrecord forgets the pair so it can be submitted again, e.g. after the
	// queue rejected it.
	Unrecord(ctx context.Context, gameID, digest string)

	Size() int64
}

type key struct {
	gameID string
	digest string
}

// inMemoryDeduper keeps at most maxSize pairs and evicts the oldest first.
// A maxSize of zero or less keeps every pair.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[key]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[key]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, gameID, digest string) bool {
	k := key{gameID: gameID, digest: digest}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(key))
		d.size.Add(-1)
	}
	d.seen[k] = d.order.PushFront(k)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, gameID, digest string) {
	k := key{gameID: gameID, digest: digest}
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[k]; ok {
		d.order.Remove(e)
		delete(d.seen, k)
		d.size.Add(-1)
	}
}

// Size returns the current number of recorded pairs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
