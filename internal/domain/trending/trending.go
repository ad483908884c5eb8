// Package trending ranks tokens by how sharply their latest signal moved,
// damped by how many items backed it.
package trending

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/sentinel/internal/domain/model"
)

// RecentSourcesLimit caps the item ids reported per entry.
const RecentSourcesLimit = 5

// Pair is a token's latest signal and the one before it. Previous is nil when
// the token has a single signal.
type Pair struct {
	Latest   model.TokenSignal
	Previous *model.TokenSignal
}

// PercentChange returns the score change between previous and latest in
// percent. A zero previous score maps to +100, -100 or 0 by the sign of the
// latest score.
func PercentChange(previous, latest int) float64 {
	if previous == 0 {
		switch {
		case latest > 0:
			return 100
		case latest < 0:
			return -100
		default:
			return 0
		}
	}
	return float64(latest-previous) / math.Abs(float64(previous)) * 100
}

// TrendScore is |percentChange| * ln(volume+1).
func TrendScore(percentChange float64, volume int) float64 {
	if volume < 0 {
		volume = 0
	}
	return math.Abs(percentChange) * math.Log(float64(volume)+1)
}

// Rank returns at most limit entries ordered by trend score descending, ties
// by symbol ascending. A non-positive limit yields no entries.
func Rank(pairs []Pair, limit int) []model.TrendingEntry {
	if limit <= 0 || len(pairs) == 0 {
		return []model.TrendingEntry{}
	}

	entries := make([]model.TrendingEntry, 0, len(pairs))
	for _, p := range pairs {
		prev := p.Latest
		if p.Previous != nil {
			prev = *p.Previous
		}
		pct := PercentChange(prev.Score, p.Latest.Score)
		entries = append(entries, model.TrendingEntry{
			Symbol:        p.Latest.Symbol,
			Mentions:      p.Latest.Volume,
			Score:         p.Latest.Score,
			PercentChange: pct,
			TrendScore:    TrendScore(pct, p.Latest.Volume),
			RecentSources: recent(p.Latest.Sources),
		})
	}

	slices.SortStableFunc(entries, func(a, b model.TrendingEntry) int {
		if c := cmp.Compare(b.TrendScore, a.TrendScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func recent(sources []string) []string {
	start := max(0, len(sources)-RecentSourcesLimit)
	return slices.Clone(sources[start:])
}
