// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Bounds shared by every signal the engine produces.
const (
	MinScore      = -100
	MaxScore      = 100
	MinConfidence = 0
	MaxConfidence = 100

	MaxSymbolLen = 10
)

// Symbol validation errors.
var (
	ErrEmptySymbol   = errors.New("symbol is empty")
	ErrSymbolTooLong = errors.New("symbol is too long")
	ErrInvalidSymbol = errors.New("symbol must be ascii alphanumeric")
)

// NormalizeSymbol trims and upper-cases s and checks it is a usable token
// key: 1..MaxSymbolLen ASCII letters or digits.
func NormalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
	if err := ValidateSymbol(s); err != nil {
		return "", err
	}
	return s, nil
}

// ValidateSymbol reports whether s is already a normalized symbol.
func ValidateSymbol(s string) error {
	switch {
	case s == "":
		return ErrEmptySymbol
	case len(s) > MaxSymbolLen:
		return fmt.Errorf("%w: %q", ErrSymbolTooLong, s)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
		}
	}
	return nil
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
