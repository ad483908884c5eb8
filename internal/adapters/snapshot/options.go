package snapshot

import (
	"time"

	"github.com/okian/sentinel/pkg/logger"
)

// Option configures a RedisPublisher.
type Option func(*RedisPublisher)

// WithPrefix sets the key prefix. Keys are "<prefix>:signal:<SYMBOL>" and
// "<prefix>:trending".
func WithPrefix(prefix string) Option {
	return func(p *RedisPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithTTL sets the expiry of published keys. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(p *RedisPublisher) {
		if ttl >= 0 {
			p.ttl = ttl
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(p *RedisPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}
