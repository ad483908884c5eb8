package engine

import (
	"time"

	"github.com/okian/sentinel/internal/domain/extract"
	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithExtractor sets the token extractor and with it the tracked list.
func WithExtractor(x *extract.Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithTrackedSymbols builds the extractor from a tracked symbol list.
func WithTrackedSymbols(symbols []string) Option {
	return func(e *Engine) {
		e.extractor = extract.New(symbols)
	}
}

// WithScorer sets the item scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// WithTrackedOnly drops discovered cashtags that are not tracked.
func WithTrackedOnly(on bool) Option {
	return func(e *Engine) {
		e.trackedOnly = on
	}
}

// WithScoringParallelism bounds the goroutines scoring one batch.
// Values below 1 mean sequential scoring.
func WithScoringParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithClock sets the time source stamped on produced signals.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
