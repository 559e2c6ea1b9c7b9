package transport

import (
	"errors"
	"fmt"
)

// ErrTransport marks any failed provider round trip: network errors,
// timeouts, non-2xx responses and undecodable bodies.
var ErrTransport = errors.New("provider request failed")

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s %s: HTTP %d: %s", e.Provider, e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrTransport) match API errors.
func (e *APIError) Unwrap() error {
	return ErrTransport
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an
// *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
