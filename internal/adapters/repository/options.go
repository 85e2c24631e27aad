package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithShardCount sets the number of lock shards. Values below one are ignored.
func WithShardCount(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*sqliteSettings)

type sqliteSettings struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a write waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *sqliteSettings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
