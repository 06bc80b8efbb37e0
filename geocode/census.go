package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/internal/httputil"
)

// DefaultCensusURL is the public US Census geocoding service.
const DefaultCensusURL = "https://geocoding.geo.census.gov"

// DefaultBenchmark is the current public address benchmark.
const DefaultBenchmark = "Public_AR_Current"

// CensusOptions configure a CensusGeocoder.
type CensusOptions struct {
	BaseURL   string
	Benchmark string
	UserAgent string
	Timeout   time.Duration
	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// CensusGeocoder resolves oneline addresses through the US Census geocoder
// (endpoint /geocoder/locations/onelineaddress; coordinates come back as
// x=lon, y=lat).
type CensusGeocoder struct {
	baseURL   string
	benchmark string
	client    *http.Client
}

var _ core.Geocoder = (*CensusGeocoder)(nil)

// NewCensusGeocoder constructs a Census provider with a bounded-timeout
// client and User-Agent stamping.
func NewCensusGeocoder(optFns ...func(o *CensusOptions)) *CensusGeocoder {
	opts := CensusOptions{
		BaseURL:   DefaultCensusURL,
		Benchmark: DefaultBenchmark,
		UserAgent: "wxbot/1.0 (demo@example.com)",
		Timeout:   httputil.DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = httputil.NewClient(opts.UserAgent, opts.Timeout)
	}
	return &CensusGeocoder{baseURL: opts.BaseURL, benchmark: opts.Benchmark, client: client}
}

// Name identifies the provider for health reporting.
func (g *CensusGeocoder) Name() string { return "census" }

// Resolve looks the address up, returning ErrLocationNotFound when the
// service has no match and ErrUpstreamUnavailable on transport failure.
func (g *CensusGeocoder) Resolve(ctx context.Context, location string) (core.Coordinates, error) {
	if location == "" {
		return core.Coordinates{}, core.ErrLocationNotFound
	}

	q := url.Values{}
	q.Set("address", location)
	q.Set("benchmark", g.benchmark)
	q.Set("format", "json")
	endpoint := g.baseURL + "/geocoder/locations/onelineaddress?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.Coordinates{}, fmt.Errorf("build census request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return core.Coordinates{}, fmt.Errorf("census geocoder: %v: %w", err, core.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.Coordinates{}, fmt.Errorf("census geocoder status %d: %s: %w",
			resp.StatusCode, string(body), core.ErrUpstreamUnavailable)
	}

	var payload struct {
		Result struct {
			AddressMatches []struct {
				Coordinates struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"coordinates"`
			} `json:"addressMatches"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Coordinates{}, fmt.Errorf("decode census response: %v: %w", err, core.ErrUpstreamUnavailable)
	}
	if len(payload.Result.AddressMatches) == 0 {
		return core.Coordinates{}, core.ErrLocationNotFound
	}
	match := payload.Result.AddressMatches[0].Coordinates
	return core.Coordinates{Lat: match.Y, Lon: match.X}, nil
}
