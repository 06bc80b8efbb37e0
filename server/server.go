package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/logging"
	"github.com/wxbot/wxbot/policy"
)

const (
	// maxUtteranceLen bounds /predict input text.
	maxUtteranceLen = 500
	// maxLocationLen bounds /session/location input.
	maxLocationLen = 120

	defaultMaxConcurrent = 64
)

// Options configure a Server.
type Options struct {
	// Logger receives request-level records. Defaults to NoOp.
	Logger logging.Logger
	// MaxConcurrent caps in-flight turn handling. Requests beyond the cap
	// wait on the request context.
	MaxConcurrent int64
}

// Server handles the HTTP surface in front of a Policy.
type Server struct {
	policy *policy.Policy
	logger logging.Logger
	sem    *semaphore.Weighted
}

// NewServer builds a Server around the given policy.
func NewServer(p *policy.Policy, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxConcurrent: defaultMaxConcurrent,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	return &Server{
		policy: p,
		logger: opts.Logger,
		sem:    semaphore.NewWeighted(opts.MaxConcurrent),
	}
}

// Register wires the server endpoints onto the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/session/location", s.handleSeedLocation)
	mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns a mux with all endpoints registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type predictRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type predictResponse struct {
	SessionID      string               `json:"session_id"`
	Intent         string               `json:"intent"`
	Confidence     float64              `json:"confidence"`
	Entities       core.Entities        `json:"entities"`
	State          string               `json:"state"`
	Reply          string               `json:"reply"`
	SelectedPeriod *core.ForecastPeriod `json:"selected_period,omitempty"`
	LatencyMS      int64                `json:"latency_ms"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload predictRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	payload.Text = strings.TrimSpace(payload.Text)
	if payload.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(payload.Text) > maxUtteranceLen {
		writeError(w, http.StatusBadRequest, "text too long")
		return
	}
	// A missing session id starts a fresh session.
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy")
		return
	}
	defer s.sem.Release(1)

	turn := s.policy.HandleTurn(r.Context(), payload.SessionID, payload.Text)

	writeJSON(w, http.StatusOK, predictResponse{
		SessionID:      turn.SessionID,
		Intent:         turn.Intent,
		Confidence:     turn.Confidence,
		Entities:       turn.Entities,
		State:          string(turn.State),
		Reply:          turn.Reply,
		SelectedPeriod: turn.SelectedPeriod,
		LatencyMS:      turn.Latency.Milliseconds(),
	})
}

type seedLocationRequest struct {
	SessionID string `json:"session_id"`
	Location  string `json:"location"`
}

type seedLocationResponse struct {
	SessionID string  `json:"session_id"`
	Location  string  `json:"location"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

func (s *Server) handleSeedLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload seedLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	payload.Location = strings.TrimSpace(payload.Location)
	if payload.Location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	if len(payload.Location) > maxLocationLen {
		writeError(w, http.StatusBadRequest, "location too long")
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	ref, err := s.policy.SeedLocation(r.Context(), payload.SessionID, payload.Location)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrLocationNotFound):
			writeError(w, http.StatusNotFound, "location not found")
		case errors.Is(err, core.ErrUpstreamUnavailable):
			writeError(w, http.StatusServiceUnavailable, "geocoding service unavailable")
		default:
			s.logger.Error("seed location failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := seedLocationResponse{SessionID: payload.SessionID, Location: ref.Name}
	if ref.Coords != nil {
		resp.Lat = ref.Coords.Lat
		resp.Lon = ref.Coords.Lon
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status      string             `json:"status"`
	Time        time.Time          `json:"time"`
	Diagnostics policy.Diagnostics `json:"diagnostics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Time:        time.Now().UTC(),
		Diagnostics: s.policy.Snapshot(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
