// Package extract finds the token symbols a piece of text refers to.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/okian/sentinel/internal/domain/types"
)

// cashtagPattern matches "$" followed by 2..10 upper-case letters that are
// not glued to further word characters.
var cashtagPattern = regexp.MustCompile(`\$([A-Z]{2,10})\b`)

// Extractor recognizes cashtags and bare whole-word mentions of tracked symbols.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	tracked map[string]struct{}
	bare    *regexp.Regexp // nil when nothing is tracked
}

// New builds an extractor for the tracked symbols. Invalid symbols are
// skipped; callers validate the list at config load.
func New(tracked []string) *Extractor {
	e := &Extractor{tracked: make(map[string]struct{}, len(tracked))}

	alts := make([]string, 0, len(tracked))
	for _, s := range tracked {
		sym, err := types.NormalizeSymbol(s)
		if err != nil {
			continue
		}
		if _, dup := e.tracked[sym]; dup {
			continue
		}
		e.tracked[sym] = struct{}{}
		alts = append(alts, regexp.QuoteMeta(sym))
	}
	if len(alts) == 0 {
		return e
	}

	// Longest first so the alternation prefers "SOLX" over "SOL".
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	e.bare = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	return e
}

// Tokens returns the de-duplicated symbols text refers to, sorted.
// Every cashtag is returned whether or not it is tracked.
func (e *Extractor) Tokens(text string) []string {
	found := make(map[string]struct{})

	for _, m := range cashtagPattern.FindAllStringSubmatch(text, -1) {
		found[m[1]] = struct{}{}
	}
	if e.bare != nil {
		for _, m := range e.bare.FindAllString(text, -1) {
			found[strings.ToUpper(m)] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for sym := range found {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// IsTracked reports whether sym is on the tracked list.
func (e *Extractor) IsTracked(sym string) bool {
	_, ok := e.tracked[sym]
	return ok
}

// Tracked returns the tracked symbols, sorted.
func (e *Extractor) Tracked() []string {
	out := make([]string, 0, len(e.tracked))
	for sym := range e.tracked {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
