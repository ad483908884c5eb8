// Package loadgen drives a running service with synthetic batches and checks
// the signals and trending ranking it reports afterwards.
package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/okian/sentinel/pkg/logger"
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid load config: %w", err)
	}

	stats := &Stats{
		StartTime: time.Now(),
	}

	config.Logger.Info(ctx, "starting sentinel load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("batches", config.NumBatches),
		logger.Int("batchSize", config.BatchSize),
		logger.Any("tokens", config.Tokens),
		logger.Int("replays", config.Replays),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("topN", config.TopN),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	baseline, err := getServiceStats(ctx, newHTTPClient(config.Timeout), config.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("reading service stats failed: %w", err)
	}

	// Step 2: Generate batches
	set, err := generateBatches(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("batch generation failed: %w", err)
	}

	// Step 3: Submit batches, then replay a prefix of them
	if err := submitBatches(ctx, config, set.batches, stats); err != nil {
		return stats, fmt.Errorf("batch submission failed: %w", err)
	}
	if config.Replays > 0 {
		if err := submitBatches(ctx, config, set.batches[:config.Replays], stats); err != nil {
			return stats, fmt.Errorf("batch replay failed: %w", err)
		}
	}

	// Step 4: Wait for processing
	if err := waitForProcessing(ctx, config, baseline.ProcessedBatches+int64(stats.BatchesAccepted)); err != nil {
		return stats, fmt.Errorf("waiting for processing failed: %w", err)
	}

	// Step 5: Retrieve signals concurrently
	tokens := make([]string, 0, len(set.mentions))
	for sym := range set.mentions {
		tokens = append(tokens, sym)
	}
	sort.Strings(tokens)
	signals, missing, err := retrieveSignals(ctx, config, tokens, stats)
	if err != nil {
		return stats, fmt.Errorf("signal retrieval failed: %w", err)
	}

	// Step 6: Get trending
	trending, err := getTrending(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("trending retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(ctx, config, signals, missing, trending, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save batches to file
	if config.OutputFile != "" {
		if err := saveBatchesToFile(ctx, config, set.batches); err != nil {
			config.Logger.Warn(ctx, "failed to save batches to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, config, stats)

	config.Logger.Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	config.Logger.Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	config.Logger.Info(ctx, "service is healthy")
	return nil
}

// saveBatchesToFile writes the generated batches as a JSON array.
func saveBatchesToFile(ctx context.Context, config *Config, batches []BatchRequest) (err error) {
	if len(batches) == 0 {
		return errors.New("no batches to save")
	}

	filename := config.OutputFile
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batches); err != nil {
		return fmt.Errorf("failed to write batches: %w", err)
	}

	config.Logger.Info(ctx, "batches saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, config *Config, stats *Stats) {
	var successRate, batchesPerSecond float64

	if stats.BatchesSubmitted > 0 {
		successRate = float64(stats.BatchesAccepted+stats.BatchesDuplicate) / float64(stats.BatchesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		batchesPerSecond = float64(stats.BatchesSubmitted) / stats.Duration.Seconds()
	}

	config.Logger.Info(ctx, "final statistics",
		logger.Int("batchesGenerated", stats.BatchesGenerated),
		logger.Int("itemsGenerated", stats.ItemsGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesAccepted", stats.BatchesAccepted),
		logger.Int("batchesDuplicate", stats.BatchesDuplicate),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("retries", stats.Retries),
		logger.Int("itemsAccepted", stats.ItemsAccepted),
		logger.Int("itemsDuplicate", stats.ItemsDuplicate),
		logger.Int("signalsRetrieved", stats.SignalsRetrieved),
		logger.Int("trendingEntries", stats.TrendingEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("batchesPerSecond", batchesPerSecond))
}
