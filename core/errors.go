package core

import "errors"

// Sentinel errors shared across the orchestration layer. Callers classify
// failures with errors.Is; every one of these is converted to a
// deterministic user-facing reply before leaving the policy.
var (
	// ErrLocationNotFound is returned by geocoders when the provider has no
	// match for the location string. It is a terminal per-turn condition,
	// not a retryable upstream failure.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoForecastData is returned when the upstream responds successfully
	// but supplies an empty period sequence.
	ErrNoForecastData = errors.New("no forecast periods available")

	// ErrUpstreamUnavailable wraps timeouts and non-success responses from
	// the geocoder or weather service. Results carrying it are never cached.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
