package scoring

import (
	"fmt"
	"math"
)

// Default scoring policy constants.
const (
	DefaultKeywordWeight              = 0.55
	DefaultEmojiWeight                = 0.15
	DefaultViralityWeight             = 0.1
	DefaultNegationWeight             = 0.5
	DefaultNegationWindow             = 3
	DefaultHighConvictionWeight       = 2.0
	DefaultReshareFactor              = 2.0
	DefaultReplyFactor                = 0.5
	DefaultEngagementDivisor          = 500.0
	DefaultEngagementCap              = 3.0
	DefaultFollowerDivisor            = 100_000.0
	DefaultFollowerCap                = 2.5
	DefaultViralityThreshold          = 0.05
	DefaultViralityCap                = 20.0
	DefaultEmojiStep                  = 10.0
	DefaultEmojiCap                   = 50.0
	DefaultConfidencePerHit           = 18.0
	DefaultEngagementConfidenceFactor = 0.3
	DefaultFollowerConfidenceFactor   = 0.6
)

// Weights is the tunable scoring policy. The koanf tags match the
// scoring section of the service configuration.
type Weights struct {
	KeywordWeight              float64 `koanf:"keyword_weight"`
	EmojiWeight                float64 `koanf:"emoji_weight"`
	ViralityWeight             float64 `koanf:"virality_weight"`
	NegationWeight             float64 `koanf:"negation_weight"`
	NegationWindow             int     `koanf:"negation_window"`
	HighConvictionWeight       float64 `koanf:"high_conviction_weight"`
	ReshareFactor              float64 `koanf:"reshare_factor"`
	ReplyFactor                float64 `koanf:"reply_factor"`
	EngagementDivisor          float64 `koanf:"engagement_divisor"`
	EngagementCap              float64 `koanf:"engagement_cap"`
	FollowerDivisor            float64 `koanf:"follower_divisor"`
	FollowerCap                float64 `koanf:"follower_cap"`
	ViralityThreshold          float64 `koanf:"virality_threshold"`
	ViralityCap                float64 `koanf:"virality_cap"`
	EmojiStep                  float64 `koanf:"emoji_step"`
	EmojiCap                   float64 `koanf:"emoji_cap"`
	ConfidencePerHit           float64 `koanf:"confidence_per_hit"`
	EngagementConfidenceFactor float64 `koanf:"engagement_confidence_factor"`
	FollowerConfidenceFactor   float64 `koanf:"follower_confidence_factor"`
}

// DefaultWeights returns the built-in policy.
func DefaultWeights() Weights {
	return Weights{
		KeywordWeight:              DefaultKeywordWeight,
		EmojiWeight:                DefaultEmojiWeight,
		ViralityWeight:             DefaultViralityWeight,
		NegationWeight:             DefaultNegationWeight,
		NegationWindow:             DefaultNegationWindow,
		HighConvictionWeight:       DefaultHighConvictionWeight,
		ReshareFactor:              DefaultReshareFactor,
		ReplyFactor:                DefaultReplyFactor,
		EngagementDivisor:          DefaultEngagementDivisor,
		EngagementCap:              DefaultEngagementCap,
		FollowerDivisor:            DefaultFollowerDivisor,
		FollowerCap:                DefaultFollowerCap,
		ViralityThreshold:          DefaultViralityThreshold,
		ViralityCap:                DefaultViralityCap,
		EmojiStep:                  DefaultEmojiStep,
		EmojiCap:                   DefaultEmojiCap,
		ConfidencePerHit:           DefaultConfidencePerHit,
		EngagementConfidenceFactor: DefaultEngagementConfidenceFactor,
		FollowerConfidenceFactor:   DefaultFollowerConfidenceFactor,
	}
}

// Validate reports the first field that would make scoring produce
// non-finite or meaningless values.
func (w Weights) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"engagement_divisor", w.EngagementDivisor},
		{"follower_divisor", w.FollowerDivisor},
		{"engagement_cap", w.EngagementCap},
		{"follower_cap", w.FollowerCap},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidWeights, p.name, p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"keyword_weight", w.KeywordWeight},
		{"emoji_weight", w.EmojiWeight},
		{"virality_weight", w.ViralityWeight},
		{"negation_weight", w.NegationWeight},
		{"high_conviction_weight", w.HighConvictionWeight},
		{"reshare_factor", w.ReshareFactor},
		{"reply_factor", w.ReplyFactor},
		{"virality_threshold", w.ViralityThreshold},
		{"virality_cap", w.ViralityCap},
		{"emoji_step", w.EmojiStep},
		{"emoji_cap", w.EmojiCap},
		{"confidence_per_hit", w.ConfidencePerHit},
		{"engagement_confidence_factor", w.EngagementConfidenceFactor},
		{"follower_confidence_factor", w.FollowerConfidenceFactor},
	}
	for _, p := range nonNegative {
		if !(p.v >= 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidWeights, p.name, p.v)
		}
	}

	if w.NegationWindow < 0 {
		return fmt.Errorf("%w: negation_window must be non-negative, got %d", ErrInvalidWeights, w.NegationWindow)
	}
	return nil
}

// sanitized replaces each invalid field with its default.
func (w Weights) sanitized() Weights {
	d := DefaultWeights()
	pos := func(v, def float64) float64 {
		if v > 0 && !math.IsInf(v, 0) {
			return v
		}
		return def
	}
	nonNeg := func(v, def float64) float64 {
		if v >= 0 && !math.IsInf(v, 0) {
			return v
		}
		return def
	}

	w.EngagementDivisor = pos(w.EngagementDivisor, d.EngagementDivisor)
	w.FollowerDivisor = pos(w.FollowerDivisor, d.FollowerDivisor)
	w.EngagementCap = pos(w.EngagementCap, d.EngagementCap)
	w.FollowerCap = pos(w.FollowerCap, d.FollowerCap)

	w.KeywordWeight = nonNeg(w.KeywordWeight, d.KeywordWeight)
	w.EmojiWeight = nonNeg(w.EmojiWeight, d.EmojiWeight)
	w.ViralityWeight = nonNeg(w.ViralityWeight, d.ViralityWeight)
	w.NegationWeight = nonNeg(w.NegationWeight, d.NegationWeight)
	w.HighConvictionWeight = nonNeg(w.HighConvictionWeight, d.HighConvictionWeight)
	w.ReshareFactor = nonNeg(w.ReshareFactor, d.ReshareFactor)
	w.ReplyFactor = nonNeg(w.ReplyFactor, d.ReplyFactor)
	w.ViralityThreshold = nonNeg(w.ViralityThreshold, d.ViralityThreshold)
	w.ViralityCap = nonNeg(w.ViralityCap, d.ViralityCap)
	w.EmojiStep = nonNeg(w.EmojiStep, d.EmojiStep)
	w.EmojiCap = nonNeg(w.EmojiCap, d.EmojiCap)
	w.ConfidencePerHit = nonNeg(w.ConfidencePerHit, d.ConfidencePerHit)
	w.EngagementConfidenceFactor = nonNeg(w.EngagementConfidenceFactor, d.EngagementConfidenceFactor)
	w.FollowerConfidenceFactor = nonNeg(w.FollowerConfidenceFactor, d.FollowerConfidenceFactor)

	if w.NegationWindow < 0 {
		w.NegationWindow = d.NegationWindow
	}
	return w
}
