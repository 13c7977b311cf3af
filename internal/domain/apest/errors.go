package apest

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrNegativeScore = errors.New("role score must be a non-negative number")
)
