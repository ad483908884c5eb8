// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/sentinel/internal/domain/types"
)

// TextItem is one short social post about one or more tokens.
// Tokens is empty until the extractor attaches the referenced symbols.
type TextItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	Followers int64     `json:"followers"`
	Likes     int64     `json:"likes"`
	Reshares  int64     `json:"reshares"`
	Replies   int64     `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
	Tokens    []string  `json:"tokens,omitempty"`
}

// Engagement returns the engagement counters with negative values
// normalized to zero.
func (it *TextItem) Engagement() (likes, reshares, replies, followers float64) {
	return nonNegative(it.Likes), nonNegative(it.Reshares), nonNegative(it.Replies), nonNegative(it.Followers)
}

func nonNegative(v int64) float64 {
	if v < 0 {
		return 0
	}
	return float64(v)
}

// Batch is a group of items fetched together and aggregated together.
type Batch struct {
	ID         string     `json:"id"`
	Items      []TextItem `json:"items"`
	ReceivedAt time.Time  `json:"received_at"`
}

// ItemBreakdown holds the per-signal values computed for a single item.
type ItemBreakdown struct {
	KeywordScore         float64 `json:"keyword_score"`
	KeywordWeight        float64 `json:"keyword_weight"`
	EmojiScore           float64 `json:"emoji_score"`
	EngagementMultiplier float64 `json:"engagement_multiplier"`
	FollowerWeight       float64 `json:"follower_weight"`
	ViralityBonus        float64 `json:"virality_bonus"`
	Score                int     `json:"score"`
	Confidence           int     `json:"confidence"`
}

// SignalBreakdown is the confidence-weighted average of the item
// breakdowns that produced a TokenSignal, plus its momentum.
type SignalBreakdown struct {
	KeywordScore         float64 `json:"keyword_score"`
	EmojiScore           float64 `json:"emoji_score"`
	EngagementMultiplier float64 `json:"engagement_multiplier"`
	FollowerWeight       float64 `json:"follower_weight"`
	ViralityBonus        float64 `json:"virality_bonus"`
	Momentum             int     `json:"momentum"`
}

// TokenSignal is the aggregate sentiment for one token produced by one batch.
// A published TokenSignal is never mutated.
type TokenSignal struct {
	Symbol     string           `json:"symbol"`
	Score      int              `json:"score"`
	Confidence int              `json:"confidence"`
	Volume     int              `json:"volume"`
	CreatedAt  time.Time        `json:"created_at"`
	Sources    []string         `json:"sources"`
	Breakdown  *SignalBreakdown `json:"breakdown,omitempty"`
}

// Momentum returns the score delta against the previous signal, or zero
// when the signal carries no breakdown.
func (s *TokenSignal) Momentum() int {
	if s.Breakdown == nil {
		return 0
	}
	return s.Breakdown.Momentum
}

// Validate checks the bounds every published signal must satisfy.
func (s *TokenSignal) Validate() error {
	if err := types.ValidateSymbol(s.Symbol); err != nil {
		return err
	}
	if s.Score < types.MinScore || s.Score > types.MaxScore {
		return fmt.Errorf("%w: %d", ErrScoreOutOfRange, s.Score)
	}
	if s.Confidence < types.MinConfidence || s.Confidence > types.MaxConfidence {
		return fmt.Errorf("%w: %d", ErrConfidenceOutOfRange, s.Confidence)
	}
	if s.Volume < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeVolume, s.Volume)
	}
	if b := s.Breakdown; b != nil {
		for _, v := range []float64{b.KeywordScore, b.EmojiScore, b.EngagementMultiplier, b.FollowerWeight, b.ViralityBonus} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNonFinite
			}
		}
	}
	return nil
}

// TrendingEntry is one row of the trending ranking.
type TrendingEntry struct {
	Symbol        string   `json:"symbol"`
	Mentions      int      `json:"mentions"`
	Score         int      `json:"score"`
	PercentChange float64  `json:"percent_change"`
	TrendScore    float64  `json:"trend_score"`
	RecentSources []string `json:"recent_sources"`
}
