package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxbot/wxbot/core"
)

func weekPeriods() []core.ForecastPeriod {
	return []core.ForecastPeriod{
		{Name: "Today", IsDaytime: true, ShortForecast: "Sunny"},
		{Name: "Tonight", IsDaytime: false, ShortForecast: "Clear"},
		{Name: "Tomorrow", IsDaytime: true, ShortForecast: "Partly Cloudy"},
		{Name: "Tomorrow Night", IsDaytime: false, ShortForecast: "Cloudy"},
		{Name: "Monday", IsDaytime: true, ShortForecast: "Rain"},
		{Name: "Monday Night", IsDaytime: false, ShortForecast: "Showers"},
	}
}

func TestSelectPeriod(t *testing.T) {
	periods := weekPeriods()

	tests := []struct {
		datetime string
		want     string
	}{
		{"", "Today"},
		{"today", "Today"},
		{"now", "Today"},
		{"tonight", "Tonight"},
		{"tomorrow", "Tomorrow"},
		{"tomorrow morning", "Tomorrow"},
		{"tomorrow night", "Tomorrow Night"},
		{"monday", "Monday"},
		{"MONDAY", "Monday"},
		{"tuesday", "Today"}, // no matching period falls back to current
	}
	for _, tt := range tests {
		got, err := SelectPeriod(periods, tt.datetime)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Name, "datetime: %q", tt.datetime)
	}
}

func TestSelectPeriod_WeekdayPrefersDaytime(t *testing.T) {
	periods := []core.ForecastPeriod{
		{Name: "Sunday Night", IsDaytime: false},
		{Name: "Monday", IsDaytime: true},
		{Name: "Monday Night", IsDaytime: false},
	}
	got, err := SelectPeriod(periods, "monday")
	require.NoError(t, err)
	assert.Equal(t, "Monday", got.Name)

	// Only the night period exists: it still beats the fallback.
	got, err = SelectPeriod(periods[:1], "sunday")
	require.NoError(t, err)
	assert.Equal(t, "Sunday Night", got.Name)
}

func TestSelectPeriod_Weekend(t *testing.T) {
	periods := []core.ForecastPeriod{
		{Name: "Today", IsDaytime: true},
		{Name: "Tonight", IsDaytime: false},
		{Name: "Saturday", IsDaytime: true},
		{Name: "Saturday Night", IsDaytime: false},
	}
	got, err := SelectPeriod(periods, "weekend")
	require.NoError(t, err)
	assert.Equal(t, "Saturday", got.Name)
}

func TestSelectPeriod_TonightLedSequence(t *testing.T) {
	periods := []core.ForecastPeriod{
		{Name: "Tonight", IsDaytime: false},
		{Name: "Tomorrow", IsDaytime: true},
		{Name: "Tomorrow Night", IsDaytime: false},
	}

	got, err := SelectPeriod(periods, "tonight")
	require.NoError(t, err)
	assert.Equal(t, "Tonight", got.Name)

	got, err = SelectPeriod(periods, "tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "Tomorrow", got.Name)

	got, err = SelectPeriod(periods, "tomorrow night")
	require.NoError(t, err)
	assert.Equal(t, "Tomorrow Night", got.Name)
}

func TestSelectPeriod_TodayQualifiers(t *testing.T) {
	periods := []core.ForecastPeriod{
		{Name: "This Afternoon", IsDaytime: true},
		{Name: "Tonight", IsDaytime: false},
		{Name: "Tomorrow", IsDaytime: true},
	}

	got, err := SelectPeriod(periods, "this afternoon")
	require.NoError(t, err)
	assert.Equal(t, "This Afternoon", got.Name)

	// Evening accepts the tonight period.
	got, err = SelectPeriod(periods, "this evening")
	require.NoError(t, err)
	assert.Equal(t, "Tonight", got.Name)

	// Unmatched qualifier falls back to the current period.
	got, err = SelectPeriod(periods, "this morning")
	require.NoError(t, err)
	assert.Equal(t, "This Afternoon", got.Name)
}

func TestSelectPeriod_Empty(t *testing.T) {
	_, err := SelectPeriod(nil, "today")
	assert.ErrorIs(t, err, core.ErrNoForecastData)
}
