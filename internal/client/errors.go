package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for client errors, keyed by response status.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrServer     = errors.New("server error")
	ErrTransport  = errors.New("transport error")
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apest: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap lets callers match an APIError with errors.Is against the sentinels above.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrBadRequest
	}
}
