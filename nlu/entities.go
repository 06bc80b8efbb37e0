package nlu

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wxbot/wxbot/core"
)

// stateAbbr maps full US state names to USPS abbreviations, used to
// normalize "City StateName" phrasings into "City, ST".
var stateAbbr = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// stateCodes is the USPS abbreviation set, used to validate comma-less
// "in City ST" matches where any trailing 2-letter word would otherwise
// pass for a state.
var stateCodes = func() map[string]bool {
	set := make(map[string]bool, len(stateAbbr))
	for _, ab := range stateAbbr {
		set[ab] = true
	}
	return set
}()

var (
	reInCityST      = regexp.MustCompile(`(?i)\bin\s+([A-Za-z]+(?:\s[A-Za-z]+)*)\s*,\s*([A-Za-z]{2})\b`)
	reInCityAbbr    = regexp.MustCompile(`(?i)\bin\s+([A-Za-z][A-Za-z .-]*?)\s+([A-Za-z]{2})\b`)
	reInCityState   = regexp.MustCompile(`(?i)\bin\s+([A-Za-z]+(?:\s[A-Za-z]+)*?)\s*,?\s+(` + stateNameAlternation() + `)\b`)
	reTrailingState = regexp.MustCompile(`,\s*([A-Za-z]{2})\b`)
	reCityBefore    = regexp.MustCompile(`([A-Za-z]+(?:\s[A-Za-z]+)*)\s*$`)
	reZip           = regexp.MustCompile(`\b(\d{5})\b`)
	reCityOnlyST    = regexp.MustCompile(`^\s*([A-Za-z .-]+?)\s*,\s*([A-Za-z]{2})\s*$`)
	reCityOnlyState = regexp.MustCompile(`(?i)^\s*([A-Za-z .-]+?)\s*,?\s+(` + stateNameAlternation() + `)\s*$`)
	reMetricUnit    = regexp.MustCompile(`\b(c|metric)\b`)
)

func stateNameAlternation() string {
	names := make([]string, 0, len(stateAbbr))
	for name := range stateAbbr {
		names = append(names, name)
	}
	// Longest first so "new hampshire" wins over a hypothetical prefix.
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	return strings.Join(names, "|")
}

// Parser is the deterministic regex/keyword entity extractor. It performs no
// I/O and always produces identical output for identical input.
type Parser struct{}

var _ core.EntityParser = Parser{}

// NewParser returns the stateless entity parser.
func NewParser() Parser { return Parser{} }

// Parse extracts location, datetime and units slots from text.
func (Parser) Parse(text string) core.Entities {
	return core.Entities{
		Location: ParseLocation(text),
		Datetime: ParseDatetime(text),
		Units:    ParseUnits(text),
	}
}

// ParseLocation extracts a normalized "City, ST" string or a 5-digit ZIP
// from free text. The common "in City, ST" phrasing is preferred to avoid
// capturing preceding words; the comma-less "in City ST" form is accepted
// when ST is a real USPS code; "in City StateName" is normalized through the
// state table; otherwise the last ", ST" occurrence wins. Empty string means
// no location was found.
func ParseLocation(text string) string {
	if m := reInCityST.FindStringSubmatch(text); m != nil {
		return titleCase(m[1]) + ", " + strings.ToUpper(m[2])
	}
	if m := reInCityAbbr.FindStringSubmatch(text); m != nil {
		if st := strings.ToUpper(m[2]); stateCodes[st] {
			return titleCase(strings.TrimSpace(m[1])) + ", " + st
		}
	}
	if m := reInCityState.FindStringSubmatch(text); m != nil {
		return titleCase(m[1]) + ", " + stateAbbr[strings.ToLower(m[2])]
	}
	// Pick the last ", ST" occurrence and capture the word run before the
	// comma as the city, so earlier words ("what's weather") are skipped.
	if locs := reTrailingState.FindAllStringSubmatchIndex(text, -1); locs != nil {
		last := locs[len(locs)-1]
		state := strings.ToUpper(text[last[2]:last[3]])
		before := text[:last[0]]
		if cm := reCityBefore.FindStringSubmatch(before); cm != nil {
			return titleCase(cm[1]) + ", " + state
		}
	}
	if m := reZip.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// CanonicalizeLocation normalizes a bare location string ("austin, tx",
// "San Marcos Texas") into "City, ST" form. Inputs that match neither shape
// are title-cased as-is; ZIP codes pass through unchanged.
func CanonicalizeLocation(loc string) string {
	t := strings.TrimSpace(loc)
	if t == "" {
		return ""
	}
	if reZip.MatchString(t) && len(t) == 5 {
		return t
	}
	if m := reCityOnlyST.FindStringSubmatch(t); m != nil {
		return titleCase(m[1]) + ", " + strings.ToUpper(m[2])
	}
	if m := reCityOnlyState.FindStringSubmatch(t); m != nil {
		return titleCase(m[1]) + ", " + stateAbbr[strings.ToLower(m[2])]
	}
	return titleCase(t)
}

// ParseDatetime maps time references in text to a normalized datetime
// entity: "tonight", "tomorrow" (optionally qualified "morning"/"night"),
// "weekend", a weekday name, "this morning/afternoon/evening", or "today"
// when nothing matches.
func ParseDatetime(text string) string {
	t := strings.ToLower(text)
	if strings.Contains(t, "tomorrow") || strings.Contains(t, "tmrw") {
		switch {
		case strings.Contains(t, "night"):
			return "tomorrow night"
		case strings.Contains(t, "morning"):
			return "tomorrow morning"
		default:
			return "tomorrow"
		}
	}
	if strings.Contains(t, "tonight") {
		return "tonight"
	}
	if strings.Contains(t, "weekend") {
		return "weekend"
	}
	for _, d := range weekdays {
		if strings.Contains(t, d) {
			return d
		}
	}
	for _, q := range []string{"morning", "afternoon", "evening"} {
		if strings.Contains(t, q) {
			return "this " + q
		}
	}
	return "today"
}

// ParseUnits reports the requested unit system: "metric" when celsius is
// asked for, otherwise "imperial".
func ParseUnits(text string) string {
	t := strings.ToLower(text)
	if strings.Contains(t, "celsius") || reMetricUnit.MatchString(t) {
		return "metric"
	}
	return "imperial"
}

// titleCase uppercases the first letter of each space-separated word,
// mirroring Python's str.title for the plain ASCII city names we handle.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
