package core

import "time"

// TurnState tracks the lifecycle of a single dialogue turn as it moves
// through the policy pipeline. States advance monotonically; the two early
// exits (clarification, unknown location) are terminal.
type TurnState string

const (
	// StateReceived is the initial state before classification.
	StateReceived TurnState = "received"
	// StateClassified means the intent classifier has run.
	StateClassified TurnState = "classified"
	// StateEntitiesExtracted means the entity parser has run.
	StateEntitiesExtracted TurnState = "entities_extracted"
	// StateLocationResolved means a location was taken from the utterance or
	// from session memory.
	StateLocationResolved TurnState = "location_resolved"
	// StateDataFetched means forecast or alert data is available.
	StateDataFetched TurnState = "data_fetched"
	// StateReplied is the terminal success state.
	StateReplied TurnState = "replied"
	// StateClarificationNeeded is the low-confidence early exit.
	StateClarificationNeeded TurnState = "clarification_needed"
	// StateLocationUnknown is the early exit when no location is available
	// from either the utterance or session memory.
	StateLocationUnknown TurnState = "location_unknown"
)

// Turn is the ephemeral record of one dialogue exchange. It is built up by
// the policy as the turn advances and is never persisted beyond the
// interaction recorder.
type Turn struct {
	SessionID        string          `json:"session_id"`
	RawText          string          `json:"text"`
	State            TurnState       `json:"state"`
	Intent           string          `json:"intent"`
	Confidence       float64         `json:"confidence"`
	Entities         Entities        `json:"entities"`
	ResolvedLocation string          `json:"resolved_location,omitempty"`
	SelectedPeriod   *ForecastPeriod `json:"selected_period,omitempty"`
	Reply            string          `json:"reply"`
	Latency          time.Duration   `json:"latency"`
}

// TurnSnapshot is the lightweight per-turn record kept in session memory for
// follow-up context. Sessions retain a bounded window of recent snapshots.
type TurnSnapshot struct {
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Entities   Entities  `json:"entities"`
	Timestamp  time.Time `json:"timestamp"`
}
