package repository

import "time"

// Option applies a configuration option to the HistoryStore.
type Option func(*HistoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *HistoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithShardCount sets the number of lock shards symbols are hashed into.
func WithShardCount(n int) Option {
	return func(s *HistoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithHistoryLimit sets how many signals are retained per token.
func WithHistoryLimit(n int) Option {
	return func(s *HistoryStore) {
		if n > 0 {
			s.limit = n
		}
	}
}
