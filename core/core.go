package core

import (
	"fmt"
	"time"
)

// Intent labels emitted by classifiers. The orchestrator only branches on
// these values; unknown labels are treated like IntentFallback.
const (
	IntentCurrentWeather = "get_current_weather"
	IntentForecast       = "get_forecast"
	IntentAlerts         = "get_alerts"
	IntentGreet          = "greet"
	IntentHelp           = "help"
	IntentFallback       = "fallback"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns the coordinate rounded to four decimal places as a stable
// string, suitable as a cache key. Four decimals (~11m) is the precision the
// upstream weather service resolves points at.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// LocationRef is a resolved user location: the normalized display string
// (e.g. "Austin, TX") plus coordinates once geocoding has happened. The two
// facts are independently cacheable; Coords is nil until resolution.
type LocationRef struct {
	Name   string       `json:"name"`
	Coords *Coordinates `json:"coords,omitempty"`
}

// ForecastPeriod is one named forecast segment as supplied by the upstream
// weather service (e.g. "Tonight", "Monday"). Periods are read-only to the
// orchestration layer.
type ForecastPeriod struct {
	Name            string    `json:"name"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	IsDaytime       bool      `json:"isDaytime"`
	ShortForecast   string    `json:"shortForecast"`
	Temperature     int       `json:"temperature"`
	TemperatureUnit string    `json:"temperatureUnit"`
}

// AlertSummary is a condensed active weather alert.
type AlertSummary struct {
	Event    string `json:"event"`
	Headline string `json:"headline"`
}

// Entities holds the slots extracted from a single utterance. Empty string
// means the slot was not present in the text.
type Entities struct {
	Location string `json:"location,omitempty"`
	Datetime string `json:"datetime,omitempty"`
	Units    string `json:"units,omitempty"`
}

// PendingIntent is a deferred data request remembered when the bot had to
// ask for a location. A follow-up turn that supplies one completes it.
type PendingIntent struct {
	Intent   string `json:"intent"`
	Datetime string `json:"datetime,omitempty"`
}

// Prediction is the classifier output for one utterance.
type Prediction struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}
