package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("token has no history")
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrNilBuild     = errors.New("nil build function")
)
