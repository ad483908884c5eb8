package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

const (
	defaultPrefix = "sentinel"
	defaultTTL    = 24 * time.Hour
	pingTimeout   = 5 * time.Second
)

// RedisConfig holds connection settings for NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisPublisher stores the latest signal per token and the trending list
// as JSON strings.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher over an existing client.
func NewRedisPublisher(client *redis.Client, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignalKey returns the key a token's current signal is stored under.
func (p *RedisPublisher) SignalKey(symbol string) string {
	return p.prefix + ":signal:" + strings.ToUpper(symbol)
}

// TrendingKey returns the key of the trending list.
func (p *RedisPublisher) TrendingKey() string {
	return p.prefix + ":trending"
}

// PublishSignals validates and writes every signal in one pipeline. Nothing
// is written if any signal is invalid.
func (p *RedisPublisher) PublishSignals(ctx context.Context, signals []model.TokenSignal) error {
	if len(signals) == 0 {
		return nil
	}

	payloads := make(map[string]string, len(signals))
	keys := make([]string, 0, len(signals))
	for i := range signals {
		sig := &signals[i]
		if err := sig.Validate(); err != nil {
			metrics.RecordPublishError()
			return fmt.Errorf("%w: signal %q: %w", ErrPublish, sig.Symbol, err)
		}
		data, err := json.Marshal(sig)
		if err != nil {
			metrics.RecordPublishError()
			return fmt.Errorf("%w: encode %q: %w", ErrPublish, sig.Symbol, err)
		}
		key := p.SignalKey(sig.Symbol)
		if _, dup := payloads[key]; !dup {
			keys = append(keys, key)
		}
		payloads[key] = string(data)
	}

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, payloads[key], p.ttl)
		}
		return nil
	})
	if err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("snapshot", "redis_set")
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	metrics.RecordSignalsPublished(len(keys))
	p.logger.Debug(ctx, "signals published", logger.Int("count", len(keys)))
	return nil
}

// PublishTrending replaces the trending list.
func (p *RedisPublisher) PublishTrending(ctx context.Context, entries []model.TrendingEntry) error {
	if entries == nil {
		entries = []model.TrendingEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		metrics.RecordPublishError()
		return fmt.Errorf("%w: encode trending: %w", ErrPublish, err)
	}
	if err := p.client.Set(ctx, p.TrendingKey(), string(data), p.ttl).Err(); err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("snapshot", "redis_set")
		return fmt.Errorf("%w: trending: %w", ErrPublish, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
