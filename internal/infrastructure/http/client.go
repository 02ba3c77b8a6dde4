package http

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound provider call. No request is retried
// by the client itself.
const DefaultTimeout = 30 * time.Second

// NewClient creates an HTTP client for outbound provider calls. A zero
// timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
