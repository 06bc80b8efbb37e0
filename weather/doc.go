// Package weather implements the core.WeatherClient contract against the
// National Weather Service API: point metadata, forecast periods and active
// alerts. The client stamps the User-Agent the NWS access policy requires
// and bounds every call with a transport timeout; it performs no caching —
// the dialogue policy composes it with the shared bounded TTL cache.
package weather
