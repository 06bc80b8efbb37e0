package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/nlu"
	"github.com/wxbot/wxbot/policy"
	"github.com/wxbot/wxbot/session"
)

type stubClassifier struct {
	pred core.Prediction
}

func (s stubClassifier) Classify(ctx context.Context, text string) (core.Prediction, error) {
	return s.pred, nil
}

type stubGeocoder struct {
	known map[string]core.Coordinates
}

func (s stubGeocoder) Resolve(ctx context.Context, location string) (core.Coordinates, error) {
	if coords, ok := s.known[location]; ok {
		return coords, nil
	}
	return core.Coordinates{}, core.ErrLocationNotFound
}

func (s stubGeocoder) Name() string { return "stub" }

type stubWeather struct{}

func (stubWeather) ForecastPeriods(ctx context.Context, coords core.Coordinates) ([]core.ForecastPeriod, error) {
	return []core.ForecastPeriod{
		{Name: "Today", IsDaytime: true, ShortForecast: "Sunny", Temperature: 95, TemperatureUnit: "F"},
	}, nil
}

func (stubWeather) ActiveAlerts(ctx context.Context, coords core.Coordinates) ([]core.AlertSummary, error) {
	return nil, nil
}

func newTestServer(t *testing.T, pred core.Prediction) *httptest.Server {
	t.Helper()
	geocoder := stubGeocoder{known: map[string]core.Coordinates{
		"Austin, TX": {Lat: 30.2672, Lon: -97.7431},
	}}
	p := policy.New(stubClassifier{pred: pred}, nlu.NewParser(), geocoder, stubWeather{},
		session.NewInMemoryStore(100, time.Hour))
	ts := httptest.NewServer(NewServer(p).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPredict(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/predict", map[string]string{
		"session_id": "s1",
		"text":       "forecast in Austin, TX",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out predictResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, core.IntentForecast, out.Intent)
	assert.Equal(t, "Austin, TX", out.Entities.Location)
	assert.Contains(t, out.Reply, "Sunny")
	assert.Equal(t, "replied", out.State)
}

func TestPredict_GeneratesSessionID(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/predict", map[string]string{"text": "forecast in Austin, TX"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out predictResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.SessionID)
}

func TestPredict_Validation(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/predict", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/predict", map[string]string{"text": strings.Repeat("x", maxUtteranceLen+1)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	get, err := http.Get(ts.URL + "/predict")
	require.NoError(t, err)
	defer func() { _ = get.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestPredict_InvalidJSON(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSeedLocation(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/session/location", map[string]string{
		"session_id": "s1",
		"location":   "austin, tx",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out seedLocationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Austin, TX", out.Location)
	assert.InDelta(t, 30.2672, out.Lat, 1e-4)

	// A follow-up turn with no location uses the seeded one.
	turn := postJSON(t, ts.URL+"/predict", map[string]string{
		"session_id": "s1",
		"text":       "what's the forecast",
	})
	var pr predictResponse
	require.NoError(t, json.NewDecoder(turn.Body).Decode(&pr))
	assert.Contains(t, pr.Reply, "Austin, TX")
}

func TestSeedLocation_NotFound(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/session/location", map[string]string{
		"session_id": "s1",
		"location":   "Atlantis",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSeedLocation_Validation(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp := postJSON(t, ts.URL+"/session/location", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/session/location", map[string]string{
		"session_id": "s1",
		"location":   strings.Repeat("x", maxLocationLen+1),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, core.Prediction{Intent: core.IntentForecast, Confidence: 0.9})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "stub", out.Diagnostics.GeoProvider)
	assert.Contains(t, out.Diagnostics.TTLSeconds, "forecast")
}

func TestPredict_ConcurrencyCap(t *testing.T) {
	geocoder := stubGeocoder{known: map[string]core.Coordinates{
		"Austin, TX": {Lat: 30.2672, Lon: -97.7431},
	}}
	p := policy.New(stubClassifier{pred: core.Prediction{Intent: core.IntentGreet, Confidence: 0.99}},
		nlu.NewParser(), geocoder, stubWeather{}, session.NewInMemoryStore(100, time.Hour))
	ts := httptest.NewServer(NewServer(p, func(o *Options) { o.MaxConcurrent = 2 }).Handler())
	defer ts.Close()

	// All requests succeed; the cap only serializes them.
	done := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func(i int) {
			data, _ := json.Marshal(map[string]string{
				"session_id": fmt.Sprintf("s%d", i),
				"text":       "hello",
			})
			resp, err := http.Post(ts.URL+"/predict", "application/json", bytes.NewReader(data))
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					err = fmt.Errorf("status %d", resp.StatusCode)
				}
			}
			done <- err
		}(i)
	}
	for i := 0; i < 6; i++ {
		assert.NoError(t, <-done)
	}
}
