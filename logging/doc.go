// Package logging provides a minimal logging interface and adapters for wxbot.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the policy and server use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - BotLogger with contextual helpers and turn/upstream logging
//
// Usage:
//
//	logger := logging.NewLogger(nil).WithComponent("policy")
//	p := policy.New(clf, parser, geo, wx, sessions, policy.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
