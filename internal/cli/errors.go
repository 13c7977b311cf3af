package cli

import "errors"

// Sentinel kinds for command errors.
var (
	ErrInput    = errors.New("invalid input")
	ErrNoMatch  = errors.New("no code matches")
	ErrSeedFail = errors.New("some submissions failed")
)
