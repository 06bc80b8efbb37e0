package policy

import (
	"strings"

	"github.com/wxbot/wxbot/core"
)

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// SelectPeriod maps a datetime entity onto one of the ordered forecast
// periods. It is a pure function; given the same inputs it always picks the
// same period. Rules, in priority order:
//
//  1. an explicit weekday or "weekend" selects the first period whose name
//     contains that day, preferring the daytime period
//  2. "tonight" selects the first nighttime period among the first two
//  3. "tomorrow" (optionally qualified morning/night) selects the first
//     daytime period past today's periods; the night qualifier advances to
//     the next nighttime period after that match
//  4. anything else ("now", "today", empty) selects the current period
//
// A qualifier that matches no period falls back to the nearest chronological
// period of the correct day/night parity, and ultimately to periods[0].
// An empty period sequence yields core.ErrNoForecastData.
func SelectPeriod(periods []core.ForecastPeriod, datetime string) (core.ForecastPeriod, error) {
	if len(periods) == 0 {
		return core.ForecastPeriod{}, core.ErrNoForecastData
	}

	when := strings.ToLower(strings.TrimSpace(datetime))
	switch {
	case when == "weekend":
		if p, ok := matchDay(periods, "saturday", "sunday"); ok {
			return p, nil
		}
	case isWeekday(when):
		if p, ok := matchDay(periods, when); ok {
			return p, nil
		}
	case when == "tonight":
		for i := 0; i < len(periods) && i < 2; i++ {
			if !periods[i].IsDaytime {
				return periods[i], nil
			}
		}
	case strings.HasPrefix(when, "tomorrow"):
		if p, ok := matchTomorrow(periods, strings.Contains(when, "night")); ok {
			return p, nil
		}
	case strings.HasPrefix(when, "this "):
		if p, ok := matchTodayQualifier(periods, strings.TrimPrefix(when, "this ")); ok {
			return p, nil
		}
	}
	return periods[0], nil
}

func isWeekday(s string) bool {
	for _, d := range weekdayNames {
		if s == d {
			return true
		}
	}
	return false
}

// matchDay finds the first period naming one of the given days, preferring
// a daytime period over its night counterpart.
func matchDay(periods []core.ForecastPeriod, days ...string) (core.ForecastPeriod, bool) {
	var nightMatch *core.ForecastPeriod
	for i := range periods {
		name := strings.ToLower(periods[i].Name)
		for _, day := range days {
			if !strings.Contains(name, day) {
				continue
			}
			if periods[i].IsDaytime {
				return periods[i], true
			}
			if nightMatch == nil {
				nightMatch = &periods[i]
			}
		}
	}
	if nightMatch != nil {
		return *nightMatch, true
	}
	return core.ForecastPeriod{}, false
}

// matchTomorrow locates tomorrow's period. When the sequence leads with a
// daytime period ("Today"), tomorrow starts past today and tonight at index
// 2; when it leads with "Tonight", tomorrow is already at index 1. The
// night variant advances to the first nighttime period at or after that
// point.
func matchTomorrow(periods []core.ForecastPeriod, night bool) (core.ForecastPeriod, bool) {
	start := 1
	if periods[0].IsDaytime {
		start = 2
	}
	dayIdx := -1
	for i := start; i < len(periods); i++ {
		if periods[i].IsDaytime {
			dayIdx = i
			break
		}
	}
	if !night {
		if dayIdx >= 0 {
			return periods[dayIdx], true
		}
		return core.ForecastPeriod{}, false
	}
	from := start
	if dayIdx >= 0 {
		from = dayIdx + 1
	}
	for i := from; i < len(periods); i++ {
		if !periods[i].IsDaytime {
			return periods[i], true
		}
	}
	return core.ForecastPeriod{}, false
}

// matchTodayQualifier resolves "this morning/afternoon/evening" by scanning
// the first few period names; evening additionally accepts "tonight".
func matchTodayQualifier(periods []core.ForecastPeriod, qualifier string) (core.ForecastPeriod, bool) {
	targets := []string{qualifier}
	if qualifier == "evening" {
		targets = append(targets, "tonight")
	}
	limit := len(periods)
	if limit > 4 {
		limit = 4
	}
	for i := 0; i < limit; i++ {
		name := strings.ToLower(periods[i].Name)
		for _, target := range targets {
			if strings.Contains(name, target) {
				return periods[i], true
			}
		}
	}
	return core.ForecastPeriod{}, false
}
