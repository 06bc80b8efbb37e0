package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/internal/httputil"
)

// DefaultBaseURL is the public National Weather Service API.
const DefaultBaseURL = "https://api.weather.gov"

// HTTPError captures an unexpected upstream status code and response body.
// It unwraps to core.ErrUpstreamUnavailable so callers can classify it with
// errors.Is without depending on this package's concrete type.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

func (e *HTTPError) Unwrap() error { return core.ErrUpstreamUnavailable }

// Options configure a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// Client talks to the NWS API. Forecasts require two calls: point metadata
// supplies the gridpoint forecast URL, which then yields the period list.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ core.WeatherClient = (*Client)(nil)

// NewClient constructs an NWS client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:   DefaultBaseURL,
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
	return &Client{baseURL: opts.BaseURL, client: client}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("nws request: %v: %w", err, core.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nws response: %v: %w", err, core.ErrUpstreamUnavailable)
	}
	return nil
}

// ForecastPeriods fetches the ordered period list for a coordinate.
func (c *Client) ForecastPeriods(ctx context.Context, coords core.Coordinates) ([]core.ForecastPeriod, error) {
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, coords.Lat, coords.Lon)
	var points struct {
		Properties struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}
	if err := c.getJSON(ctx, pointsURL, &points); err != nil {
		return nil, err
	}
	if points.Properties.Forecast == "" {
		return nil, fmt.Errorf("forecast url missing from point metadata: %w", core.ErrUpstreamUnavailable)
	}

	var forecast struct {
		Properties struct {
			Periods []struct {
				Name            string    `json:"name"`
				StartTime       time.Time `json:"startTime"`
				EndTime         time.Time `json:"endTime"`
				IsDaytime       bool      `json:"isDaytime"`
				Temperature     int       `json:"temperature"`
				TemperatureUnit string    `json:"temperatureUnit"`
				ShortForecast   string    `json:"shortForecast"`
			} `json:"periods"`
		} `json:"properties"`
	}
	if err := c.getJSON(ctx, points.Properties.Forecast, &forecast); err != nil {
		return nil, err
	}

	periods := make([]core.ForecastPeriod, 0, len(forecast.Properties.Periods))
	for _, p := range forecast.Properties.Periods {
		periods = append(periods, core.ForecastPeriod{
			Name:            p.Name,
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			IsDaytime:       p.IsDaytime,
			Temperature:     p.Temperature,
			TemperatureUnit: p.TemperatureUnit,
			ShortForecast:   p.ShortForecast,
		})
	}
	return periods, nil
}

// ActiveAlerts fetches active alerts near a coordinate. An empty slice is a
// valid result, not an error.
func (c *Client) ActiveAlerts(ctx context.Context, coords core.Coordinates) ([]core.AlertSummary, error) {
	url := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", c.baseURL, coords.Lat, coords.Lon)
	var payload struct {
		Features []struct {
			Properties struct {
				Event    string `json:"event"`
				Headline string `json:"headline"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	alerts := make([]core.AlertSummary, 0, len(payload.Features))
	for _, f := range payload.Features {
		if f.Properties.Event == "" && f.Properties.Headline == "" {
			continue
		}
		alerts = append(alerts, core.AlertSummary{Event: f.Properties.Event, Headline: f.Properties.Headline})
	}
	return alerts, nil
}
