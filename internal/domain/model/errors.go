package model

import "errors"

// Sentinel kinds for signal validation errors.
var (
	ErrScoreOutOfRange      = errors.New("score out of range")
	ErrConfidenceOutOfRange = errors.New("confidence out of range")
	ErrNegativeVolume       = errors.New("volume is negative")
	ErrNonFinite            = errors.New("breakdown value is not finite")
)
