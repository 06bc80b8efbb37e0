package core

import "context"

// Classifier assigns an intent label and a confidence in [0,1] to raw text.
// Implementations may be statistical (TF-IDF), transformer-based or remote;
// the policy only depends on this contract.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// EntityParser extracts slot values from raw text. Implementations must be
// pure: no I/O and deterministic output for identical input.
type EntityParser interface {
	Parse(text string) Entities
}

// Geocoder resolves a normalized location string ("Austin, TX", a ZIP code)
// to coordinates. A provider with no match returns ErrLocationNotFound;
// transport failures wrap ErrUpstreamUnavailable.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (Coordinates, error)
	// Name identifies the provider for health reporting.
	Name() string
}

// WeatherClient fetches forecast periods and active alerts for a coordinate.
// Both calls must honor context cancellation and bound their own transport
// timeouts.
type WeatherClient interface {
	ForecastPeriods(ctx context.Context, coords Coordinates) ([]ForecastPeriod, error)
	ActiveAlerts(ctx context.Context, coords Coordinates) ([]AlertSummary, error)
}

// SessionStore remembers per-session conversational state: the last known
// location, an optional deferred request and a bounded window of turn
// snapshots. Reads bump recency so an active session is never evicted ahead
// of an idle one. Implementations must be safe for concurrent use across
// sessions; same-session writes are last-write-wins.
type SessionStore interface {
	GetLocation(sessionID string) (LocationRef, bool)
	SetLocation(sessionID string, loc LocationRef)
	PendingIntent(sessionID string) (PendingIntent, bool)
	SetPendingIntent(sessionID string, pending PendingIntent)
	ClearPendingIntent(sessionID string)
	AppendSnapshot(sessionID string, snap TurnSnapshot)
	Snapshots(sessionID string) []TurnSnapshot
	Len() int
}

// Recorder persists completed turns for offline analysis. Recording is
// best-effort: a recorder failure must never fail the turn.
type Recorder interface {
	Record(ctx context.Context, turn Turn) error
}
