package api

import "github.com/okian/sentinel/pkg/logger"

type serverConfig struct {
	maxLimit      int
	maxBatchItems int
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*serverConfig)

// WithMaxTrendingLimit caps the limit accepted by GET /trending.
func WithMaxTrendingLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithMaxBatchItems caps the number of items accepted in one POST /batches.
func WithMaxBatchItems(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBatchItems = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
