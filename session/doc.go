// Package session houses concrete implementations of the core.SessionStore
// contract. The interface itself lives in the core package to centralize
// domain contracts; keeping only implementations here prevents higher level
// packages (policy, server) from depending on concrete storage.
//
// The in-memory store applies the same expiry and eviction discipline as the
// data caches: sessions expire after a TTL of inactivity and the oldest
// session is evicted first when the table exceeds its capacity. Add
// additional backends (Redis, Postgres, ...) in sub-packages without changing
// any calling code; only the wiring layer decides which implementation to
// instantiate.
package session
