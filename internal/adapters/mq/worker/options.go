package worker

import (
	"sync/atomic"

	"github.com/okian/twin/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRejectHook registers a callback for sessions that could not be applied.
func WithRejectHook(h RejectHook) Option {
	return func(w *Worker) {
		if h != nil {
			w.reject = h
		}
	}
}

func withActive(n *atomic.Int64) Option {
	return func(w *Worker) { w.active = n }
}

func withDrainHook(fn func()) Option {
	return func(w *Worker) { w.onDrain = fn }
}
