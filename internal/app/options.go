package service

import (
	"github.com/okian/sentinel/internal/adapters/snapshot"
	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/pkg/logger"
)

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

// WithQueueSize sets the maximum number of queued batches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many item ids are remembered across batches.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of history store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithHistoryLimit caps the signals retained per token.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithTrackedTokens sets the symbols matched without a cashtag.
func WithTrackedTokens(symbols []string) Option {
	return func(s *Service) {
		s.tracked = symbols
	}
}

// WithTrackedOnly drops cashtags outside the tracked list.
func WithTrackedOnly(on bool) Option {
	return func(s *Service) {
		s.trackedOnly = on
	}
}

// WithLexicon replaces the built-in scoring lexicon.
func WithLexicon(lex *lexicon.Lexicon) Option {
	return func(s *Service) {
		if lex != nil {
			s.lexicon = lex
		}
	}
}

// WithWeights sets the scoring weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithScoringParallelism bounds how many items of one batch are scored at once.
func WithScoringParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scoringParallelism = n
		}
	}
}

// WithPublisher sets where produced signals are published.
func WithPublisher(p snapshot.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithTrendingPublishLimit sets how many trending entries are published
// after each batch.
func WithTrendingPublishLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trendingPublishLimit = n
		}
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
