package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
)

// serviceStats is the subset of GET /stats the runner reads.
type serviceStats struct {
	Started          bool  `json:"started"`
	QueueLength      int   `json:"queueLength"`
	ProcessedBatches int64 `json:"processedBatches"`
}

func getServiceStats(ctx context.Context, client *HTTPClient, baseURL string) (serviceStats, error) {
	var s serviceStats
	if _, err := client.getJSON(ctx, baseURL+"/stats", &s); err != nil {
		return serviceStats{}, err
	}
	return s, nil
}

// waitForProcessing polls /stats until the service has processed target
// batches and its queue is empty, or the settle timeout expires.
func waitForProcessing(ctx context.Context, config *Config, target int64) error {
	config.Logger.Info(ctx, "waiting for batches to be processed", logger.Int64("target", target))

	client := newHTTPClient(config.Timeout)
	ctx, cancel := context.WithTimeout(ctx, config.SettleTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	var last serviceStats
	for {
		s, err := getServiceStats(ctx, client, config.BaseURL)
		if err == nil {
			last = s
			if s.ProcessedBatches >= target && s.QueueLength == 0 {
				config.Logger.Info(ctx, "service settled", logger.Int64("processed", s.ProcessedBatches))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("processed %d of %d batches before timeout: %w", last.ProcessedBatches, target, ctx.Err())
		case <-ticker.C:
		}
	}
}

// retrieveSignals fetches the current signal of every token concurrently.
// Tokens the service has no signal for are counted as missing.
func retrieveSignals(ctx context.Context, config *Config, tokens []string, stats *Stats) (map[string]model.TokenSignal, []string, error) {
	config.Logger.Info(ctx, "retrieving signals",
		logger.Int("tokens", len(tokens)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)

	var (
		mu       sync.Mutex
		signals  = make(map[string]model.TokenSignal, len(tokens))
		missing  []string
		failed   int
		firstErr error
	)

	tokenChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sym := range tokenChan {
				if ctx.Err() != nil {
					return
				}
				sig, status, err := retrieveSingleSignal(ctx, client, config.BaseURL, sym)

				mu.Lock()
				switch {
				case err == nil:
					signals[sym] = sig
				case status == http.StatusNotFound:
					missing = append(missing, sym)
				default:
					failed++
					if firstErr == nil {
						firstErr = err
					}
					if config.Verbose {
						config.Logger.Warn(ctx, "failed to get signal", logger.String("symbol", sym), logger.Error(err))
					}
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(tokenChan)
		for _, sym := range tokens {
			select {
			case <-ctx.Done():
				return
			case tokenChan <- sym:
			}
		}
	}()

	wg.Wait()
	sort.Strings(missing)

	stats.SignalsRetrieved = len(signals)
	config.Logger.Info(ctx, "signal retrieval completed",
		logger.Int("retrieved", len(signals)),
		logger.Int("missing", len(missing)),
		logger.Int("failed", failed))

	if firstErr != nil {
		return signals, missing, fmt.Errorf("%d signal requests failed: %w", failed, firstErr)
	}
	return signals, missing, nil
}

// retrieveSingleSignal retrieves the current signal for one token.
func retrieveSingleSignal(ctx context.Context, client *HTTPClient, baseURL, sym string) (model.TokenSignal, int, error) {
	var sig model.TokenSignal
	status, err := client.getJSON(ctx, fmt.Sprintf("%s/signals/%s", baseURL, sym), &sig)
	if err != nil {
		return model.TokenSignal{}, status, err
	}
	return sig, status, nil
}

// getTrending retrieves the top N trending entries.
func getTrending(ctx context.Context, config *Config, stats *Stats) ([]model.TrendingEntry, error) {
	config.Logger.Info(ctx, "getting trending entries", logger.Int("limit", config.TopN))

	client := newHTTPClient(config.Timeout)
	var entries []model.TrendingEntry
	if _, err := client.getJSON(ctx, fmt.Sprintf("%s/trending?limit=%d", config.BaseURL, config.TopN), &entries); err != nil {
		return nil, err
	}

	stats.TrendingEntries = len(entries)
	config.Logger.Info(ctx, "retrieved trending entries", logger.Int("count", len(entries)))
	return entries, nil
}
