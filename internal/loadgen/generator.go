package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
)

// Constants for engagement generation ranges.
const (
	maxFollowers      = 250000
	maxLikes          = 5000
	maxReshares       = 800
	maxReplies        = 300
	secondTokenChance = 0.25
	emojiChance       = 0.4
	maxItemAge        = 30 * time.Minute
)

// Constants for text mood cases.
const (
	caseBullish = iota
	caseBearish
	caseNegatedBullish
	caseConvictionBullish
	caseConvictionBearish
	caseNeutral
	moodCount
)

// batchSet is what a generation pass produced.
type batchSet struct {
	batches  []BatchRequest
	mentions map[string]int
}

// generateBatches creates the configured number of batches. Each batch draws
// from its own generator seeded with the run seed and the batch index, so a
// fixed seed reproduces the same run regardless of worker scheduling.
func generateBatches(ctx context.Context, config *Config, stats *Stats) (*batchSet, error) {
	config.Logger.Info(ctx, "generating batches",
		logger.Int("batches", config.NumBatches),
		logger.Int("batchSize", config.BatchSize))

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	runID := fmt.Sprintf("%x", seed)
	lx := lexicon.Default()
	now := time.Now().UTC().Truncate(time.Second)

	batches := make([]BatchRequest, config.NumBatches)

	type batchResult struct {
		index int
		batch BatchRequest
	}
	resultChan := make(chan batchResult, config.NumBatches)

	workerCount := minInt(config.Workers, config.NumBatches)
	batchesPerWorker := config.NumBatches / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * batchesPerWorker
		end := start + batchesPerWorker
		if worker == workerCount-1 {
			end = config.NumBatches
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				rng := rand.New(rand.NewPCG(seed, uint64(i)))
				resultChan <- batchResult{index: i, batch: generateSingleBatch(rng, lx, config, runID, i, now)}
			}
		}(start, end)
	}

	for i := 0; i < config.NumBatches; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during batch generation: %w", ctx.Err())
		case result := <-resultChan:
			batches[result.index] = result.batch
		}
	}

	set := &batchSet{batches: batches, mentions: make(map[string]int)}
	items := 0
	for _, b := range batches {
		items += len(b.Items)
		for _, it := range b.Items {
			for _, sym := range it.Tokens {
				set.mentions[sym]++
			}
		}
	}

	stats.BatchesGenerated = len(batches)
	stats.ItemsGenerated = items
	config.Logger.Info(ctx, "generated batches",
		logger.Int("batches", len(batches)),
		logger.Int("items", items),
		logger.Int("tokens", len(set.mentions)))

	return set, nil
}

// generateSingleBatch builds one batch of items mentioning the configured tokens.
func generateSingleBatch(rng *rand.Rand, lx *lexicon.Lexicon, config *Config, runID string, index int, now time.Time) BatchRequest {
	batch := BatchRequest{
		BatchID: fmt.Sprintf("lg_%s_%d", runID, index),
		Items:   make([]model.TextItem, config.BatchSize),
	}

	for j := range batch.Items {
		syms := []string{pick(rng, config.Tokens)}
		if len(config.Tokens) > 1 && rng.Float64() < secondTokenChance {
			if second := pick(rng, config.Tokens); second != syms[0] {
				syms = append(syms, second)
			}
		}

		batch.Items[j] = model.TextItem{
			ID:        fmt.Sprintf("%s_%d", batch.BatchID, j),
			Text:      generateText(rng, lx, syms),
			AuthorID:  fmt.Sprintf("author_%d", rng.IntN(config.NumBatches*config.BatchSize+1)),
			Followers: rng.Int64N(maxFollowers),
			Likes:     rng.Int64N(maxLikes),
			Reshares:  rng.Int64N(maxReshares),
			Replies:   rng.Int64N(maxReplies),
			CreatedAt: now.Add(-time.Duration(rng.Int64N(int64(maxItemAge)))).Truncate(time.Second),
			Tokens:    syms,
		}
	}

	return batch
}

// generateText writes a short post about syms in a randomly chosen mood.
func generateText(rng *rand.Rand, lx *lexicon.Lexicon, syms []string) string {
	tags := make([]string, len(syms))
	for i, s := range syms {
		tags[i] = "$" + s
	}
	subject := strings.Join(tags, " and ")

	var text string
	switch rng.IntN(moodCount) {
	case caseBullish:
		text = fmt.Sprintf("%s looking %s", subject, pick(rng, lx.Bullish))
	case caseBearish:
		text = fmt.Sprintf("%s about to %s", subject, pick(rng, lx.Bearish))
	case caseNegatedBullish:
		text = fmt.Sprintf("%s is %s %s", subject, pick(rng, lx.Negations), pick(rng, lx.Bullish))
	case caseConvictionBullish:
		text = fmt.Sprintf("%s on %s", pick(rng, lx.HighConvictionBullish), subject)
	case caseConvictionBearish:
		text = fmt.Sprintf("%s: %s", subject, pick(rng, lx.HighConvictionBearish))
	default:
		text = fmt.Sprintf("anyone watching %s today?", subject)
	}

	if rng.Float64() < emojiChance {
		if rng.IntN(2) == 0 {
			text += " " + pick(rng, lx.BullishEmoji)
		} else {
			text += " " + pick(rng, lx.BearishEmoji)
		}
	}
	return text
}

func pick(rng *rand.Rand, list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[rng.IntN(len(list))]
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
