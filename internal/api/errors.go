package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the backend responds with 404.
// For a user lookup it means the user has not been registered yet.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s %s: unexpected status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("api: %s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}
