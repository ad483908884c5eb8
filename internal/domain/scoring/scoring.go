// Package scoring computes a signed sentiment score and a confidence for a
// single text item from lexical and engagement signals.
package scoring

import (
	"math"
	"strings"
	"unicode"

	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/types"
)

const percent = 100

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights replaces the scoring policy. Invalid values fall back to the
// defaults field by field.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.w = w.sanitized()
	}
}

// WithLexicon sets the word lists matched against item text.
func WithLexicon(lx *lexicon.Lexicon) Option {
	return func(s *Scorer) {
		if lx != nil {
			s.lx = lx
		}
	}
}

// keyword is a compiled lexicon entry. Glyph entries (no letters or digits)
// match by substring; word entries match a run of whole words.
type keyword struct {
	phrase string
	parts  []string
	glyph  bool
}

// Scorer scores items. It holds no mutable state after New returns and is
// safe for concurrent use.
type Scorer struct {
	w  Weights
	lx *lexicon.Lexicon

	bullish               []keyword
	bearish               []keyword
	highConvictionBullish []keyword
	highConvictionBearish []keyword
	negations             map[string]struct{}
	bullishEmoji          []string
	bearishEmoji          []string
}

// New creates a scorer with the default weights and lexicon unless
// overridden by options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		w:  DefaultWeights(),
		lx: lexicon.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.bullish = compile(s.lx.Bullish)
	s.bearish = compile(s.lx.Bearish)
	s.highConvictionBullish = compile(s.lx.HighConvictionBullish)
	s.highConvictionBearish = compile(s.lx.HighConvictionBearish)
	s.negations = make(map[string]struct{}, len(s.lx.Negations))
	for _, n := range s.lx.Negations {
		s.negations[normalizeApostrophes(strings.ToLower(n))] = struct{}{}
	}
	s.bullishEmoji = s.lx.BullishEmoji
	s.bearishEmoji = s.lx.BearishEmoji

	return s
}

// Weights returns the policy in use.
func (s *Scorer) Weights() Weights { return s.w }

// Score computes the breakdown for one item. It is a pure function of the
// item: no randomness and no shared mutable state.
func (s *Scorer) Score(item *model.TextItem) model.ItemBreakdown {
	lower := normalizeApostrophes(strings.ToLower(item.Text))
	raw := strings.Fields(lower)
	words := make([]string, len(raw))
	for i, r := range raw {
		words[i] = trimWord(r)
	}

	bull, bear := s.keywordWeights(lower, raw, words)
	totalWeight := bull + bear
	keywordScore := 0.0
	if totalWeight > 0 {
		keywordScore = (bull - bear) / totalWeight * percent
	}

	emojiScore := s.emojiScore(item.Text)

	likes, reshares, replies, followers := item.Engagement()
	engagement := likes + s.w.ReshareFactor*reshares + s.w.ReplyFactor*replies
	engagementMultiplier := math.Min(engagement/s.w.EngagementDivisor, s.w.EngagementCap)
	followerWeight := math.Min(1+followers/s.w.FollowerDivisor, s.w.FollowerCap)

	viralityBonus := 0.0
	if ratio := engagement / math.Max(followers, 1); ratio > s.w.ViralityThreshold {
		viralityBonus = math.Min(ratio*percent, s.w.ViralityCap)
	}

	rawScore := keywordScore*s.w.KeywordWeight +
		emojiScore*s.w.EmojiWeight +
		viralityBonus*sign(keywordScore)*s.w.ViralityWeight

	baseConfidence := math.Min(totalWeight*s.w.ConfidencePerHit, percent)
	confidence := baseConfidence *
		(1 + engagementMultiplier*s.w.EngagementConfidenceFactor) *
		(followerWeight * s.w.FollowerConfidenceFactor)

	return model.ItemBreakdown{
		KeywordScore:         keywordScore,
		KeywordWeight:        totalWeight,
		EmojiScore:           emojiScore,
		EngagementMultiplier: engagementMultiplier,
		FollowerWeight:       followerWeight,
		ViralityBonus:        viralityBonus,
		Score:                types.ClampInt(roundInt(rawScore), types.MinScore, types.MaxScore),
		Confidence:           types.ClampInt(roundInt(confidence), types.MinConfidence, types.MaxConfidence),
	}
}

// keywordWeights sums bullish and bearish hit weights. A plain keyword with a
// negation word in the look-back window counts toward the opposite polarity
// at the negation weight. High-conviction phrases ignore negation, and the
// words they cover are not matched again as plain keywords.
func (s *Scorer) keywordWeights(lower string, raw, words []string) (bull, bear float64) {
	covered := make([]bool, len(words))
	for _, kw := range s.highConvictionBullish {
		if cover(kw, lower, raw, words, covered) {
			bull += s.w.HighConvictionWeight
		}
	}
	for _, kw := range s.highConvictionBearish {
		if cover(kw, lower, raw, words, covered) {
			bear += s.w.HighConvictionWeight
		}
	}
	for _, kw := range s.bullish {
		pos, ok := locate(kw, lower, raw, words, covered)
		if !ok {
			continue
		}
		if s.negated(words, pos) {
			bear += s.w.NegationWeight
		} else {
			bull++
		}
	}
	for _, kw := range s.bearish {
		pos, ok := locate(kw, lower, raw, words, covered)
		if !ok {
			continue
		}
		if s.negated(words, pos) {
			bull += s.w.NegationWeight
		} else {
			bear++
		}
	}
	return bull, bear
}

func (s *Scorer) negated(words []string, pos int) bool {
	for i := max(0, pos-s.w.NegationWindow); i < pos; i++ {
		if _, ok := s.negations[words[i]]; ok {
			return true
		}
	}
	return false
}

func (s *Scorer) emojiScore(text string) float64 {
	diff := 0
	for _, e := range s.bullishEmoji {
		diff += strings.Count(text, e)
	}
	for _, e := range s.bearishEmoji {
		diff -= strings.Count(text, e)
	}
	return types.ClampFloat(float64(diff)*s.w.EmojiStep, -s.w.EmojiCap, s.w.EmojiCap)
}

func compile(entries []string) []keyword {
	out := make([]keyword, 0, len(entries))
	for _, e := range entries {
		e = normalizeApostrophes(strings.ToLower(strings.TrimSpace(e)))
		if e == "" {
			continue
		}
		kw := keyword{phrase: e, glyph: !strings.ContainsFunc(e, isWordRune)}
		if !kw.glyph {
			kw.parts = strings.Fields(e)
		}
		out = append(out, kw)
	}
	return out
}

// locate returns the word index of the first occurrence of kw that does not
// touch a covered word.
func locate(kw keyword, lower string, raw, words []string, covered []bool) (int, bool) {
	if kw.glyph {
		if !strings.Contains(lower, kw.phrase) {
			return 0, false
		}
		seen := false
		for i, r := range raw {
			if !strings.Contains(r, kw.phrase) {
				continue
			}
			if !covered[i] {
				return i, true
			}
			seen = true
		}
		// no single word holds it: a spaced emoji sequence
		return 0, !seen
	}

	for i := range words {
		if matchAt(kw.parts, words, i) && !anyCovered(covered[i:i+len(kw.parts)]) {
			return i, true
		}
	}
	return 0, false
}

// cover marks the words of every occurrence of kw and reports whether there
// was one.
func cover(kw keyword, lower string, raw, words []string, covered []bool) bool {
	if kw.glyph {
		if !strings.Contains(lower, kw.phrase) {
			return false
		}
		for i, r := range raw {
			if strings.Contains(r, kw.phrase) {
				covered[i] = true
			}
		}
		return true
	}

	found := false
	for i := range words {
		if matchAt(kw.parts, words, i) {
			for j := range kw.parts {
				covered[i+j] = true
			}
			found = true
		}
	}
	return found
}

func matchAt(parts, words []string, i int) bool {
	if i+len(parts) > len(words) {
		return false
	}
	for j, p := range parts {
		if words[i+j] != p {
			return false
		}
	}
	return true
}

func anyCovered(span []bool) bool {
	for _, c := range span {
		if c {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func trimWord(w string) string {
	return strings.TrimFunc(w, func(r rune) bool { return !isWordRune(r) })
}

func normalizeApostrophes(s string) string {
	return strings.ReplaceAll(s, "’", "'")
}

// sign treats zero as positive so a neutral keyword score still lets
// virality push the score upward.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// roundInt rounds half away from zero.
func roundInt(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
