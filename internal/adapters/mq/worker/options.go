package worker

import (
	"time"

	"github.com/okian/courtside/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithGameTimeout bounds the reconstruction of a single game.
func WithGameTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.gameTimeout = d
		}
	}
}

// WithCompletion registers fn to be called after each job.
func WithCompletion(fn CompletionFunc) Option {
	return func(w *InMemoryWorker) {
		w.onComplete = fn
	}
}
