package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"what's the weather in Austin, TX", "Austin, TX"},
		{"weather in san marcos, tx tonight", "San Marcos, TX"},
		{"forecast in San Antonio Texas", "San Antonio, TX"},
		{"weather in Austin TX", "Austin, TX"},
		{"forecast in Salt Lake City UT tomorrow", "Salt Lake City, UT"},
		{"weather in Austin on Monday", ""},
		{"alerts in portland, new hampshire", "Portland, NH"},
		{"Dallas, TX", "Dallas, TX"},
		{"weather for 78701", "78701"},
		{"will it rain tomorrow", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLocation(tt.text), "text: %q", tt.text)
	}
}

func TestCanonicalizeLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"austin, tx", "Austin, TX"},
		{"San Marcos Texas", "San Marcos, TX"},
		{"  dallas ,  tx ", "Dallas, TX"},
		{"78666", "78666"},
		{"", ""},
		{"timbuktu", "Timbuktu"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalizeLocation(tt.in), "input: %q", tt.in)
	}
}

func TestParseDatetime(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"forecast for tomorrow", "tomorrow"},
		{"tmrw please", "tomorrow"},
		{"what about tomorrow night", "tomorrow night"},
		{"tomorrow morning in Austin, TX", "tomorrow morning"},
		{"will it rain tonight", "tonight"},
		{"plans for the weekend", "weekend"},
		{"how about Monday", "monday"},
		{"this afternoon", "this afternoon"},
		{"weather now", "today"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDatetime(tt.text), "text: %q", tt.text)
	}
}

func TestParseUnits(t *testing.T) {
	assert.Equal(t, "metric", ParseUnits("forecast in celsius please"))
	assert.Equal(t, "metric", ParseUnits("use metric"))
	assert.Equal(t, "imperial", ParseUnits("weather in Austin, TX"))
}

func TestParser_Deterministic(t *testing.T) {
	p := NewParser()
	text := "forecast for tomorrow night in Austin, TX"
	first := p.Parse(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Parse(text))
	}
	assert.Equal(t, "Austin, TX", first.Location)
	assert.Equal(t, "tomorrow night", first.Datetime)
	assert.Equal(t, "imperial", first.Units)
}
