// Package httputil carries small HTTP helpers shared by the upstream
// clients (geocoders, weather service).
package httputil

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every upstream call unless the wiring layer
// overrides it.
const DefaultTimeout = 10 * time.Second

// UserAgentTransport is a RoundTripper that stamps a User-Agent header on
// every request. The National Weather Service requires a User-Agent with
// contact information per its access policy.
type UserAgentTransport struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

// RoundTrip clones the request to avoid mutating the caller's copy and
// forwards it with the configured User-Agent.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.UserAgent)
	wrapped := t.Wrapped
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return wrapped.RoundTrip(clone)
}

// NewClient returns an *http.Client with the given timeout and User-Agent
// applied to all requests.
func NewClient(userAgent string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &UserAgentTransport{UserAgent: userAgent},
	}
}
