package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
)

// ErrVerification is returned when the service's answers are inconsistent.
var ErrVerification = errors.New("verification failed")

// verifyResults checks signals and trending for consistency. Hard failures
// are joined into the returned error; soft mismatches are only logged because
// other traffic may reach the service during a run.
func verifyResults(ctx context.Context, config *Config, signals map[string]model.TokenSignal, missing []string, trending []model.TrendingEntry, stats *Stats) error {
	config.Logger.Info(ctx, "verifying results")

	var errs []error

	if stats.BatchesFailed > 0 {
		errs = append(errs, fmt.Errorf("%d batches were not accepted", stats.BatchesFailed))
	}
	if stats.BatchesDuplicate < config.Replays {
		config.Logger.Warn(ctx, "fewer duplicate answers than replayed batches",
			logger.Int("replays", config.Replays),
			logger.Int("duplicates", stats.BatchesDuplicate))
	}

	for _, sym := range sortedKeys(signals) {
		if err := verifySignal(sym, signals[sym]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(missing) > 0 {
		config.Logger.Warn(ctx, "tokens without a signal", logger.Any("symbols", missing))
	}

	if err := verifyTrendingConsistency(config.TopN, trending); err != nil {
		errs = append(errs, err)
	}
	for _, e := range trending {
		sig, ok := signals[e.Symbol]
		if !ok {
			continue
		}
		if sig.Score != e.Score || sig.Volume != e.Mentions {
			config.Logger.Warn(ctx, "trending entry differs from current signal",
				logger.String("symbol", e.Symbol),
				logger.Int("trendingScore", e.Score),
				logger.Int("signalScore", sig.Score))
		}
	}

	displayTopTokens(ctx, config, signals, trending)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
	}
	config.Logger.Info(ctx, "result verification completed")
	return nil
}

// verifySignal checks a single signal answer.
func verifySignal(sym string, sig model.TokenSignal) error {
	switch {
	case sig.Symbol != sym:
		return fmt.Errorf("signal for %s reports symbol %q", sym, sig.Symbol)
	case sig.Volume < 1:
		return fmt.Errorf("signal for %s has volume %d", sym, sig.Volume)
	case len(sig.Sources) == 0:
		return fmt.Errorf("signal for %s has no sources", sym)
	}
	if err := sig.Validate(); err != nil {
		return fmt.Errorf("signal for %s: %w", sym, err)
	}
	return nil
}

// verifyTrendingConsistency checks the limit and the ordering of trending.
func verifyTrendingConsistency(limit int, trending []model.TrendingEntry) error {
	if len(trending) > limit {
		return fmt.Errorf("trending returned %d entries for limit %d", len(trending), limit)
	}

	seen := make(map[string]struct{}, len(trending))
	for i, e := range trending {
		if _, dup := seen[e.Symbol]; dup {
			return fmt.Errorf("trending lists %s twice", e.Symbol)
		}
		seen[e.Symbol] = struct{}{}

		if i == 0 {
			continue
		}
		prev := trending[i-1]
		if e.TrendScore > prev.TrendScore || (e.TrendScore == prev.TrendScore && e.Symbol < prev.Symbol) {
			return fmt.Errorf("trending not properly sorted: entry %d (%s) ranks above entry %d (%s)",
				i, e.Symbol, i-1, prev.Symbol)
		}
	}
	return nil
}

// displayTopTokens logs the strongest signals and the trending head.
func displayTopTokens(ctx context.Context, config *Config, signals map[string]model.TokenSignal, trending []model.TrendingEntry) {
	ranked := make([]model.TokenSignal, 0, len(signals))
	for _, sig := range signals {
		ranked = append(ranked, sig)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	topN := minInt(10, len(ranked))
	for i := 0; i < topN; i++ {
		sig := ranked[i]
		config.Logger.Info(ctx, "signal",
			logger.Int("rank", i+1),
			logger.String("symbol", sig.Symbol),
			logger.Int("score", sig.Score),
			logger.Int("confidence", sig.Confidence),
			logger.Int("volume", sig.Volume))
	}

	for i := 0; i < minInt(topN, len(trending)); i++ {
		e := trending[i]
		config.Logger.Info(ctx, "trending",
			logger.Int("rank", i+1),
			logger.String("symbol", e.Symbol),
			logger.Float64("trendScore", e.TrendScore),
			logger.Float64("percentChange", e.PercentChange))
	}

	if config.Verbose && len(ranked) > 0 {
		config.Logger.Info(ctx, "score statistics",
			logger.Float64("average", calculateAverageScore(ranked)),
			logger.Int("maximum", ranked[0].Score),
			logger.Int("minimum", ranked[len(ranked)-1].Score))
	}
}

// calculateAverageScore calculates the average score of signals.
func calculateAverageScore(signals []model.TokenSignal) float64 {
	if len(signals) == 0 {
		return 0
	}

	sum := 0
	for _, sig := range signals {
		sum += sig.Score
	}

	return float64(sum) / float64(len(signals))
}

func sortedKeys(m map[string]model.TokenSignal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
