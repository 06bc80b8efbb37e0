// Package cache provides a generic bounded, time-expiring cache used for
// geocoding results, forecast periods and active alerts. Entries are evicted
// least-recently-touched first when capacity is exceeded and expire lazily on
// access after their TTL elapses. GetOrCompute composes the cache with a
// single-flight gate so concurrent misses for the same key collapse to one
// upstream call.
package cache
