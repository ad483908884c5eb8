// Package aggregate folds the scored items that reference one token in one
// batch into a single confidence-weighted TokenSignal.
package aggregate

import (
	"math"
	"slices"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/types"
)

// Scored is one item's contribution to a token aggregate.
type Scored struct {
	ItemID    string
	CreatedAt time.Time
	Breakdown model.ItemBreakdown
}

// Aggregate builds the signal for symbol from its contributing items. prev is
// the token's current signal before this batch, or nil for a first signal.
//
// With no items the result is the zero signal. When every item has zero
// confidence the score and confidence are zero but volume and sources are
// still reported.
func Aggregate(symbol string, items []Scored, prev *model.TokenSignal, now time.Time) model.TokenSignal {
	sig := model.TokenSignal{
		Symbol:    symbol,
		CreatedAt: now,
		Sources:   []string{},
	}
	if len(items) == 0 {
		return sig
	}

	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b Scored) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	var (
		sumW, sumScore                           float64
		keyword, emoji, engagement, follower, vb float64
	)
	sig.Sources = make([]string, 0, len(ordered))
	for _, it := range ordered {
		sig.Sources = append(sig.Sources, it.ItemID)

		w := float64(it.Breakdown.Confidence) / types.MaxConfidence
		if w <= 0 {
			continue
		}
		b := it.Breakdown
		sumW += w
		sumScore += float64(b.Score) * w
		keyword += b.KeywordScore * w
		emoji += b.EmojiScore * w
		engagement += b.EngagementMultiplier * w
		follower += b.FollowerWeight * w
		vb += b.ViralityBonus * w
	}

	sig.Volume = len(ordered)
	breakdown := &model.SignalBreakdown{}
	if sumW > 0 {
		sig.Score = types.ClampInt(int(math.Round(sumScore/sumW)), types.MinScore, types.MaxScore)
		sig.Confidence = types.ClampInt(
			int(math.Round(sumW/float64(len(ordered))*types.MaxConfidence)),
			types.MinConfidence, types.MaxConfidence,
		)
		breakdown.KeywordScore = keyword / sumW
		breakdown.EmojiScore = emoji / sumW
		breakdown.EngagementMultiplier = engagement / sumW
		breakdown.FollowerWeight = follower / sumW
		breakdown.ViralityBonus = vb / sumW
	}
	if prev != nil {
		breakdown.Momentum = sig.Score - prev.Score
	}
	sig.Breakdown = breakdown

	return sig
}
