package model

import "errors"

// ErrUnknownCodeKind is returned for code kinds other than team and church.
var ErrUnknownCodeKind = errors.New("unknown invite code kind")
