package policy

import (
	"fmt"
	"strings"

	"github.com/wxbot/wxbot/core"
)

// Canned replies. Every failure mode below the orchestrator maps onto one of
// these deterministic strings; no internal error text reaches the user.
const (
	replyClarify = "Do you want current weather, a forecast, or alerts?"

	replyNeedLocation = "What city and state? (e.g., Austin, TX)"

	replyGreet = "Hi! Ask me about current weather, a forecast, or alerts. " +
		"Example: 'forecast for tomorrow in Austin, TX'"

	replyHelp = "You can ask for current weather, forecasts (today, tonight, tomorrow, weekday), " +
		"or alerts. Include a city like 'San Marcos, TX'."

	replyFallback = "I can help with current weather, forecasts (today/tonight/tomorrow/weekday), " +
		"and weather alerts. Try: 'weather now in Austin, TX'"

	replyUnavailable = "Sorry, the weather service is unavailable right now. Please try again."

	replyProcessingError = "Sorry, something went wrong while processing your request."
)

func replyNoForecast(location string) string {
	return fmt.Sprintf("Sorry, the forecast for %s is unavailable right now.", location)
}

func composeForecastReply(location string, period core.ForecastPeriod) string {
	unit := period.TemperatureUnit
	if unit == "" {
		unit = "F"
	}
	short := period.ShortForecast
	if short == "" {
		short = "Forecast unavailable"
	}
	return fmt.Sprintf("%s in %s: %s. Around %d°%s.", period.Name, location, short, period.Temperature, unit)
}

func composeAlertsReply(location string, alerts []core.AlertSummary) string {
	if len(alerts) == 0 {
		return fmt.Sprintf("No active alerts for %s.", location)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Active alerts for %s:", location)
	for _, a := range alerts {
		event := a.Event
		if event == "" {
			event = "Alert"
		}
		fmt.Fprintf(&b, "\n- %s: %s", event, a.Headline)
	}
	return b.String()
}
