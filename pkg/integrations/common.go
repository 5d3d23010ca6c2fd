package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
)

// NewHTTPClient creates an HTTP client with the given timeout.
// A non-positive timeout uses [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// PathEscape escapes a package name for use as a single URL path segment.
// Scoped npm names keep their "@" but the slash is encoded:
// "@types/node" becomes "@types%2Fnode".
func PathEscape(name string) string { return url.PathEscape(name) }
