// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/internal/domain/types"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the number of batches waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many item ids are remembered across batches.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the history store.
	ShardCount int `koanf:"shard_count"`

	// HistoryLimit caps the signals retained per token.
	HistoryLimit int `koanf:"history_limit"`

	// MaxTrendingLimit caps GET /trending?limit.
	MaxTrendingLimit int `koanf:"max_trending_limit"`

	// MaxBatchItems caps the items accepted by one POST /batches.
	MaxBatchItems int `koanf:"max_batch_items"`

	// ScoringParallelism bounds how many items of a batch are scored at once.
	ScoringParallelism int `koanf:"scoring_parallelism"`

	// TrackedTokens lists the symbols matched without a cashtag.
	TrackedTokens []string `koanf:"tracked_tokens"`

	// TrackedOnly drops cashtags outside TrackedTokens.
	TrackedOnly bool `koanf:"tracked_only"`

	// LexiconFile is an optional YAML file replacing the built-in lexicon.
	LexiconFile string `koanf:"lexicon_file"`

	// Weights tune the item scorer.
	Weights scoring.Weights `koanf:",squash"`

	// Redis settings for snapshot publishing. An empty RedisAddr disables it.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	RedisPrefix     string `koanf:"redis_prefix"`
	RedisTTLSeconds int    `koanf:"redis_ttl_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          1024,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		ShardCount:         16,
		HistoryLimit:       500,
		MaxTrendingLimit:   100,
		MaxBatchItems:      1000,
		ScoringParallelism: runtime.NumCPU(),
		TrackedTokens:      []string{"BTC", "ETH", "SOL"},
		Weights:            scoring.DefaultWeights(),
		RedisPrefix:        "sentinel",
		RedisTTLSeconds:    86_400,
	}
}

// Validate checks the configuration and normalizes TrackedTokens in place.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive, got %d", ErrInvalidConfig, c.ShardCount)
	case c.HistoryLimit < 1:
		return fmt.Errorf("%w: history_limit must be positive, got %d", ErrInvalidConfig, c.HistoryLimit)
	case c.MaxTrendingLimit < 1:
		return fmt.Errorf("%w: max_trending_limit must be positive, got %d", ErrInvalidConfig, c.MaxTrendingLimit)
	case c.MaxBatchItems < 1:
		return fmt.Errorf("%w: max_batch_items must be positive, got %d", ErrInvalidConfig, c.MaxBatchItems)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.RedisDB < 0 || c.RedisTTLSeconds < 0:
		return fmt.Errorf("%w: redis_db and redis_ttl_seconds must not be negative", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	tracked := make([]string, 0, len(c.TrackedTokens))
	for _, raw := range c.TrackedTokens {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		sym, err := types.NormalizeSymbol(raw)
		if err != nil {
			return fmt.Errorf("%w: tracked_tokens: %w", ErrInvalidConfig, err)
		}
		tracked = append(tracked, sym)
	}
	c.TrackedTokens = tracked

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
