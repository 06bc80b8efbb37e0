// Package metrics persists completed dialogue turns to PostgreSQL for
// offline analysis. Recording is best-effort from the policy's point of
// view; a failed insert never changes the user-facing reply.
package metrics
