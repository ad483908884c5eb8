// Package engine is the sentiment scoring and aggregation engine. It turns
// batches of text items into per-token signals and answers queries over the
// retained history. It performs no I/O of its own.
package engine

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/okian/sentinel/internal/adapters/repository"
	"github.com/okian/sentinel/internal/domain/aggregate"
	"github.com/okian/sentinel/internal/domain/extract"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/internal/domain/trending"
	"github.com/okian/sentinel/internal/domain/types"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

// Engine owns the extractor, the scorer and a history store. Several
// engines may coexist, each with its own store.
type Engine struct {
	extractor   *extract.Extractor
	scorer      *scoring.Scorer
	store       repository.Store
	log         logger.Logger
	trackedOnly bool
	parallelism int
	now         func() time.Time
}

// New creates an engine over store.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		log:         logger.Discard(),
		parallelism: runtime.GOMAXPROCS(0),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.extractor == nil {
		e.extractor = extract.New(nil)
	}
	if e.scorer == nil {
		e.scorer = scoring.New()
	}
	return e
}

// ExtractTokens returns the sorted set of symbols text references.
func (e *Engine) ExtractTokens(text string) []string {
	return e.extractor.Tokens(text)
}

// ScoreItem scores one item.
func (e *Engine) ScoreItem(item *model.TextItem) model.ItemBreakdown {
	return e.scorer.Score(item)
}

// Tracked returns the configured tracked symbols.
func (e *Engine) Tracked() []string {
	return e.extractor.Tracked()
}

// ProcessBatch extracts, scores and aggregates items and appends one signal
// per referenced token. Items with no Tokens get them attached here. The
// result holds the new signal of every token the batch touched; a token
// the batch did not touch is absent and reads as the zero signal.
//
// ProcessBatch never fails. Items that reference no token are skipped.
func (e *Engine) ProcessBatch(ctx context.Context, items []model.TextItem) map[string]model.TokenSignal {
	start := time.Now()
	out := make(map[string]model.TokenSignal)
	if len(items) == 0 {
		return out
	}

	referencing := make([]int, 0, len(items))
	for i := range items {
		items[i].Tokens = e.tokensFor(&items[i])
		if len(items[i].Tokens) > 0 {
			referencing = append(referencing, i)
		}
	}
	if skipped := len(items) - len(referencing); skipped > 0 {
		metrics.RecordItemsUnreferenced(skipped)
	}

	breakdowns := e.scoreAll(items, referencing)
	metrics.RecordItemsScored(len(referencing))

	groups := make(map[string][]aggregate.Scored)
	for j, i := range referencing {
		it := &items[i]
		for _, sym := range it.Tokens {
			groups[sym] = append(groups[sym], aggregate.Scored{
				ItemID:    it.ID,
				CreatedAt: it.CreatedAt,
				Breakdown: breakdowns[j],
			})
		}
	}

	now := e.now()
	symbols := make([]string, 0, len(groups))
	for sym := range groups {
		symbols = append(symbols, sym)
	}
	slices.Sort(symbols)

	for _, sym := range symbols {
		group := groups[sym]
		sig, err := e.store.AppendWith(ctx, sym, func(prev *model.TokenSignal) model.TokenSignal {
			return aggregate.Aggregate(sym, group, prev, now)
		})
		if err != nil {
			metrics.RecordErrorByComponent("engine", "append")
			e.log.Warn(ctx, "dropping signal", logger.String("symbol", sym), logger.Error(err))
			continue
		}
		out[sym] = sig
	}

	elapsed := time.Since(start)
	metrics.RecordBatchProcessed(float64(elapsed.Microseconds()) / 1000)
	e.log.Debug(ctx, "batch processed",
		logger.Int("items", len(items)),
		logger.Int("scored", len(referencing)),
		logger.Int("tokens", len(out)),
		logger.Duration("took", elapsed),
	)
	return out
}

// tokensFor normalizes pre-attached tokens or extracts them from the text,
// then applies the tracked-only filter.
func (e *Engine) tokensFor(it *model.TextItem) []string {
	var toks []string
	if len(it.Tokens) == 0 {
		toks = e.extractor.Tokens(it.Text)
	} else {
		toks = make([]string, 0, len(it.Tokens))
		for _, t := range it.Tokens {
			sym, err := types.NormalizeSymbol(t)
			if err != nil {
				continue
			}
			toks = append(toks, sym)
		}
		slices.Sort(toks)
		toks = slices.Compact(toks)
	}

	if e.trackedOnly {
		toks = slices.DeleteFunc(toks, func(s string) bool { return !e.extractor.IsTracked(s) })
	}
	return toks
}

// scoreAll scores items[idx[j]] into result j using up to e.parallelism
// goroutines.
func (e *Engine) scoreAll(items []model.TextItem, idx []int) []model.ItemBreakdown {
	out := make([]model.ItemBreakdown, len(idx))
	if e.parallelism <= 1 || len(idx) < 2 {
		for j, i := range idx {
			out[j] = e.scorer.Score(&items[i])
		}
		return out
	}

	workers := min(e.parallelism, len(idx))
	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range next {
				out[j] = e.scorer.Score(&items[idx[j]])
			}
		}()
	}
	for j := range idx {
		next <- j
	}
	close(next)
	wg.Wait()
	return out
}

// CurrentSignal returns the latest signal for symbol, or false if the
// engine has never produced one.
func (e *Engine) CurrentSignal(ctx context.Context, symbol string) (model.TokenSignal, bool) {
	sym, err := types.NormalizeSymbol(symbol)
	if err != nil {
		return model.TokenSignal{}, false
	}
	sig, err := e.store.Current(ctx, sym)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			e.log.Warn(ctx, "current signal lookup failed", logger.String("symbol", sym), logger.Error(err))
		}
		return model.TokenSignal{}, false
	}
	return sig, true
}

// History returns the retained signals for symbol, oldest first. It is
// empty for an unknown symbol.
func (e *Engine) History(ctx context.Context, symbol string) []model.TokenSignal {
	sym, err := types.NormalizeSymbol(symbol)
	if err != nil {
		return []model.TokenSignal{}
	}
	hist, err := e.store.History(ctx, sym)
	if err != nil {
		e.log.Warn(ctx, "history lookup failed", logger.String("symbol", sym), logger.Error(err))
		return []model.TokenSignal{}
	}
	return hist
}

// Trending ranks every token with history and returns at most limit entries.
func (e *Engine) Trending(ctx context.Context, limit int) []model.TrendingEntry {
	return trending.Rank(e.store.LatestPairs(ctx), limit)
}

// Reset clears all history.
func (e *Engine) Reset(ctx context.Context) {
	e.store.Reset(ctx)
	metrics.RecordEngineReset()
	e.log.Info(ctx, "engine reset")
}

// Stats is a point-in-time summary of the retained state.
type Stats struct {
	Tokens  int `json:"tokens"`
	Records int `json:"records"`
}

// Stats reports how many tokens and signals are retained.
func (e *Engine) Stats(ctx context.Context) Stats {
	return Stats{Tokens: e.store.Count(ctx), Records: e.store.Records(ctx)}
}
