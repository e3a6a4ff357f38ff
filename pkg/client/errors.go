package client

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned for any response with status >= 400. Message holds
// the server's "error" field when the body carried one, otherwise the raw
// body text.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// IsUnauthorized reports whether err is an HTTP 401 from the service.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// ErrorMessage extracts the server's message from err if it is an HTTPError,
// or returns fallback. Pages use this to surface server errors verbatim with
// a fixed default when the failure never reached the server.
func ErrorMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
