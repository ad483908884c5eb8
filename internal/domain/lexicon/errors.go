package lexicon

import "errors"

// Sentinel error kinds for this package.
var (
	ErrLoadLexicon  = errors.New("load lexicon failed")
	ErrEmptyLexicon = errors.New("lexicon has no keywords")
)
