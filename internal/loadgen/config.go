package loadgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/types"
	"github.com/okian/sentinel/pkg/logger"
)

// Config holds configuration for a load run
type Config struct {
	BaseURL       string        // Base URL of the service
	NumBatches    int           // Number of batches to generate
	BatchSize     int           // Items per batch
	Tokens        []string      // Symbols mentioned by generated items
	Replays       int           // Batches resubmitted verbatim to exercise dedupe
	TopN          int           // Trending entries to fetch
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for the queue to drain
	PollInterval  time.Duration // How often /stats is polled while settling
	Seed          uint64        // Generator seed; zero picks one from the clock
	OutputFile    string        // Output file for generated batches
	Verbose       bool          // Enable verbose logging

	Logger logger.Logger
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return errors.New("missing base url")
	case c.NumBatches < 1:
		return errors.New("batches must be positive")
	case c.BatchSize < 1:
		return errors.New("batch size must be positive")
	case len(c.Tokens) == 0:
		return errors.New("at least one token is required")
	case c.Replays < 0 || c.Replays > c.NumBatches:
		return errors.New("replays must be between 0 and the batch count")
	}
	seen := make(map[string]struct{}, len(c.Tokens))
	tokens := make([]string, 0, len(c.Tokens))
	for _, raw := range c.Tokens {
		sym, err := types.NormalizeSymbol(raw)
		if err != nil {
			return fmt.Errorf("token %q: %w", raw, err)
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		tokens = append(tokens, sym)
	}
	c.Tokens = tokens
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TopN < 1 {
		c.TopN = DefaultTopN
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultRequestTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = logger.Discard()
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// BatchRequest is the body of POST /batches.
type BatchRequest struct {
	BatchID string           `json:"batch_id"`
	Items   []model.TextItem `json:"items"`
}

// AckResponse represents the response from batch submission
type AckResponse struct {
	Status     string `json:"status"`
	BatchID    string `json:"batch_id"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
}

// Stats holds run statistics
type Stats struct {
	BatchesGenerated int
	ItemsGenerated   int
	BatchesSubmitted int
	BatchesAccepted  int
	BatchesDuplicate int
	BatchesFailed    int
	Retries          int
	ItemsAccepted    int
	ItemsDuplicate   int
	SignalsRetrieved int
	TrendingEntries  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
