package service

import "errors"

// Sentinel kinds returned by the service; the HTTP layer maps them to status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrCodeSpace    = errors.New("could not allocate a unique invite code")
)
