// Package core provides the foundational domain types and contracts used by
// wxbot. It defines the core abstractions for:
//
//   - Locations, coordinates, forecast periods and alerts as supplied by
//     upstream weather services
//   - NLU outputs (intent predictions and extracted entities)
//   - Dialogue turns and their per-turn lifecycle states
//   - Pluggable contracts for classifiers, entity parsers, geocoders,
//     weather clients, session stores and interaction recorders
//
// The package intentionally keeps implementation concerns (caching, HTTP
// clients, orchestration) out of scope, exposing small interfaces to enable
// custom backends and extensions. All exported identifiers include concise
// documentation to aid discoverability and external consumption.
package core
