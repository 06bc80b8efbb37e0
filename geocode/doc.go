// Package geocode houses the core.Geocoder implementations: a static demo
// map for offline development, the US Census geocoder for real lookups and a
// local CSV table for air-gapped deployments. The provider is selected once
// at startup; callers only see the core.Geocoder contract. Result caching is
// not done here — the dialogue policy composes providers with the shared
// bounded TTL cache.
package geocode
