package worker

import (
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
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

// WithPublisher sets where produced signals are published. Without one
// nothing is published.
func WithPublisher(p Publisher) Option {
	return func(w *InMemoryWorker) {
		w.publisher = p
	}
}

// WithTrendingLimit sets how many trending entries are published per batch.
func WithTrendingLimit(n int) Option {
	return func(w *InMemoryWorker) {
		if n > 0 {
			w.trendingLimit = n
		}
	}
}

// WithOnProcessed registers a hook called after each batch is processed.
func WithOnProcessed(fn func(model.Batch, map[string]model.TokenSignal)) Option {
	return func(w *InMemoryWorker) {
		w.onProcessed = fn
	}
}
