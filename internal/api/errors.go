package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches responses with status 404.
	ErrNotFound = errors.New("api: not found")
	// ErrNetwork wraps transport failures, including timeouts.
	ErrNetwork = errors.New("api: network error")
	// ErrDecode reports a 2xx response whose body could not be used.
	ErrDecode = errors.New("api: malformed response")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	// Message is the server's {"error": "..."} text when it sent one.
	Message string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		text = "unexpected status"
	}
	if e.Message != "" {
		return fmt.Sprintf("api: %s: %d %s: %s", e.Op, e.StatusCode, text, e.Message)
	}
	return fmt.Sprintf("api: %s: %d %s", e.Op, e.StatusCode, text)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err came from a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
