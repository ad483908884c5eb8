package scoring

import "errors"

// ErrInvalidWeights is returned by Weights.Validate.
var ErrInvalidWeights = errors.New("invalid scoring weights")
