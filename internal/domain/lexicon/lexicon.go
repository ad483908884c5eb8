// Package lexicon holds the word lists the item scorer matches against.
//
// A Lexicon is loaded once at startup and treated as immutable afterwards.
package lexicon

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Lexicon groups the keyword, emoji, negation and high-conviction lists.
// Entries are lower-cased; multi-word phrases and emoji glyphs are allowed
// in the keyword lists.
type Lexicon struct {
	Bullish               []string `koanf:"bullish"`
	Bearish               []string `koanf:"bearish"`
	BullishEmoji          []string `koanf:"bullish_emoji"`
	BearishEmoji          []string `koanf:"bearish_emoji"`
	Negations             []string `koanf:"negations"`
	HighConvictionBullish []string `koanf:"high_conviction_bullish"`
	HighConvictionBearish []string `koanf:"high_conviction_bearish"`
}

// Default returns the built-in lexicon.
func Default() *Lexicon {
	return &Lexicon{
		Bullish: []string{
			"bullish", "moon", "mooning", "to the moon", "pump", "pumping", "buy", "buying",
			"breakout", "rally", "ath", "all time high", "undervalued", "accumulate",
			"gem", "lfg", "send it", "higher", "🚀", "📈", "💎",
		},
		Bearish: []string{
			"bearish", "dump", "dumping", "sell", "selling", "crash", "crashing", "rug",
			"rugpull", "rug pull", "scam", "overvalued", "rekt", "bleeding", "lower",
			"📉", "💀", "🩸",
		},
		BullishEmoji: []string{"🚀", "📈", "💎", "🔥", "🟢", "🐂", "🌕", "💰"},
		BearishEmoji: []string{"📉", "💀", "🩸", "🔻", "🔴", "🐻", "😱"},
		Negations: []string{
			"not", "no", "never", "isn't", "isnt", "don't", "dont", "doesn't", "doesnt",
			"won't", "wont", "can't", "cant", "ain't", "aint", "hardly", "nor", "without",
		},
		HighConvictionBullish: []string{
			"strong buy", "loading up", "backing up the truck", "generational buy", "accumulating heavily",
		},
		HighConvictionBearish: []string{
			"capitulation", "strong sell", "get out now", "going to zero", "total collapse", "massive dump",
		},
	}
}

// Load reads a YAML lexicon from path on top of the defaults. A list present
// in the file replaces the default list of the same name.
func Load(_ context.Context, path string) (*Lexicon, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLexicon, path, err)
	}

	lx := Default()
	// slices decode element-wise over the default, so lists present in the
	// file start empty
	for key, list := range lx.lists() {
		if k.Exists(key) {
			*list = nil
		}
	}
	if err := k.UnmarshalWithConf("", lx, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLexicon, path, err)
	}

	lx.normalize()
	if err := lx.Validate(); err != nil {
		return nil, err
	}
	return lx, nil
}

// Validate rejects a lexicon the scorer could never produce a keyword hit from.
func (l *Lexicon) Validate() error {
	if len(l.Bullish)+len(l.Bearish)+len(l.HighConvictionBullish)+len(l.HighConvictionBearish) == 0 {
		return ErrEmptyLexicon
	}
	return nil
}

func (l *Lexicon) lists() map[string]*[]string {
	return map[string]*[]string{
		"bullish":                 &l.Bullish,
		"bearish":                 &l.Bearish,
		"bullish_emoji":           &l.BullishEmoji,
		"bearish_emoji":           &l.BearishEmoji,
		"negations":               &l.Negations,
		"high_conviction_bullish": &l.HighConvictionBullish,
		"high_conviction_bearish": &l.HighConvictionBearish,
	}
}

func (l *Lexicon) normalize() {
	for _, list := range l.lists() {
		*list = clean(*list)
	}
}

// clean lower-cases, trims and de-duplicates entries, keeping first-seen order.
func clean(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
