package policy

import (
	"context"
	"errors"
	"time"

	"github.com/wxbot/wxbot/cache"
	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/logging"
	"github.com/wxbot/wxbot/nlu"
)

// DefaultConfidenceThreshold gates replies: below it the policy asks a
// clarifying question instead of fetching anything.
const DefaultConfidenceThreshold = 0.55

// Default cache tuning, matching the original deployment. Geocode results
// are effectively static so they live the longest; alerts churn fastest.
const (
	DefaultGeocodeTTL      = 24 * time.Hour
	DefaultForecastTTL     = 10 * time.Minute
	DefaultAlertsTTL       = 2 * time.Minute
	DefaultGeocodeCacheMax = 256
	DefaultForecastMax     = 512
	DefaultAlertsMax       = 512
)

// Options configure a Policy beyond its required collaborators.
type Options struct {
	// Logger receives turn and upstream-call records. Defaults to NoOp.
	Logger logging.Logger
	// Recorder persists completed turns, best-effort. Nil disables.
	Recorder core.Recorder
	// ConfidenceThreshold gates low-certainty turns.
	ConfidenceThreshold float64
	// Cache tuning. TTLs and capacities are independent per cache.
	GeocodeTTL       time.Duration
	ForecastTTL      time.Duration
	AlertsTTL        time.Duration
	GeocodeCacheMax  int
	ForecastCacheMax int
	AlertsCacheMax   int
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Diagnostics is the health snapshot exposed to the HTTP layer.
type Diagnostics struct {
	GeoProvider string                 `json:"geo_provider"`
	TTLSeconds  map[string]int         `json:"ttl"`
	Caches      map[string]cache.Stats `json:"caches"`
	Sessions    int                    `json:"sessions"`
}

// Policy sequences one dialogue turn: classify, extract entities, resolve a
// location (utterance first, session memory second), geocode and fetch
// weather data through single-flight guarded caches, select a forecast
// period and compose the reply. All methods are safe for concurrent use;
// the caches and session store are the only shared mutable state.
type Policy struct {
	classifier core.Classifier
	parser     core.EntityParser
	geocoder   core.Geocoder
	weather    core.WeatherClient
	sessions   core.SessionStore
	recorder   core.Recorder
	logger     logging.Logger
	threshold  float64
	now        func() time.Time

	geocodeCache  *cache.BoundedTTLCache[string, core.Coordinates]
	forecastCache *cache.BoundedTTLCache[string, []core.ForecastPeriod]
	alertsCache   *cache.BoundedTTLCache[string, []core.AlertSummary]
}

// New constructs a Policy with its collaborators. Caches are created here
// and torn down with the process; nothing is shared outside the policy.
func New(
	classifier core.Classifier,
	parser core.EntityParser,
	geocoder core.Geocoder,
	weatherClient core.WeatherClient,
	sessions core.SessionStore,
	optFns ...func(o *Options),
) *Policy {
	opts := Options{
		Logger:              logging.NoOpLogger{},
		ConfidenceThreshold: DefaultConfidenceThreshold,
		GeocodeTTL:          DefaultGeocodeTTL,
		ForecastTTL:         DefaultForecastTTL,
		AlertsTTL:           DefaultAlertsTTL,
		GeocodeCacheMax:     DefaultGeocodeCacheMax,
		ForecastCacheMax:    DefaultForecastMax,
		AlertsCacheMax:      DefaultAlertsMax,
		Now:                 time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Policy{
		classifier:    classifier,
		parser:        parser,
		geocoder:      geocoder,
		weather:       weatherClient,
		sessions:      sessions,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
		threshold:     opts.ConfidenceThreshold,
		now:           opts.Now,
		geocodeCache:  cache.New[string, core.Coordinates](opts.GeocodeCacheMax, opts.GeocodeTTL, func(o *cache.Options) { o.Now = opts.Now }),
		forecastCache: cache.New[string, []core.ForecastPeriod](opts.ForecastCacheMax, opts.ForecastTTL, func(o *cache.Options) { o.Now = opts.Now }),
		alertsCache:   cache.New[string, []core.AlertSummary](opts.AlertsCacheMax, opts.AlertsTTL, func(o *cache.Options) { o.Now = opts.Now }),
	}
}

// WithLogger sets the policy logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithRecorder sets the interaction recorder.
func WithRecorder(r core.Recorder) func(o *Options) {
	return func(o *Options) { o.Recorder = r }
}

// HandleTurn runs one dialogue turn to completion. It never returns an
// error: every failure becomes a user-facing reply on the returned Turn.
func (p *Policy) HandleTurn(ctx context.Context, sessionID, text string) core.Turn {
	start := p.now()
	turn := core.Turn{SessionID: sessionID, RawText: text, State: core.StateReceived}

	pred, err := p.classifier.Classify(ctx, text)
	if err != nil {
		p.logger.Error("classifier failed", "error", err)
		turn.Intent = "error"
		turn.Reply = replyProcessingError
		return p.finish(ctx, turn, start)
	}
	turn.Intent = pred.Intent
	turn.Confidence = pred.Confidence
	turn.State = core.StateClassified

	// Entity extraction is pure, so it runs even for gated turns; the
	// recorded entities make low-confidence turns diagnosable.
	turn.Entities = p.parser.Parse(text)
	turn.State = core.StateEntitiesExtracted

	resumed := p.resumePending(&turn)

	if !resumed && pred.Confidence < p.threshold {
		turn.State = core.StateClarificationNeeded
		turn.Reply = replyClarify
		return p.finish(ctx, turn, start)
	}

	switch turn.Intent {
	case core.IntentGreet:
		turn.Reply = replyGreet
		turn.State = core.StateReplied
		return p.finish(ctx, turn, start)
	case core.IntentHelp:
		turn.Reply = replyHelp
		turn.State = core.StateReplied
		return p.finish(ctx, turn, start)
	case core.IntentCurrentWeather, core.IntentForecast, core.IntentAlerts:
	default:
		turn.Reply = replyFallback
		turn.State = core.StateReplied
		return p.finish(ctx, turn, start)
	}

	location := p.resolveLocation(&turn)
	if location == "" {
		p.deferTurn(&turn)
		turn.Reply = replyNeedLocation
		return p.finish(ctx, turn, start)
	}

	coords, err := p.resolveCoordinates(ctx, location)
	if err != nil {
		if errors.Is(err, core.ErrLocationNotFound) {
			p.deferTurn(&turn)
			turn.Reply = replyNeedLocation
		} else {
			p.logger.Error("geocoding failed", "location", location, "error", err)
			turn.Reply = replyUnavailable
		}
		return p.finish(ctx, turn, start)
	}

	if turn.Intent == core.IntentAlerts {
		p.answerAlerts(ctx, &turn, location, coords)
	} else {
		p.answerForecast(ctx, &turn, location, coords)
	}
	return p.finish(ctx, turn, start)
}

// resumePending redirects a turn to the previous turn's deferred request
// when the utterance supplies a location but no actionable intent of its own
// (a bare "Austin, TX" after being asked for one). The deferred datetime
// hint wins over the follow-up's implicit "today". Reports whether the turn
// was redirected, which also bypasses the confidence gate.
func (p *Policy) resumePending(turn *core.Turn) bool {
	if turn.Entities.Location == "" {
		return false
	}
	if turn.Confidence >= p.threshold && actionableIntent(turn.Intent) {
		return false
	}
	pending, ok := p.sessions.PendingIntent(turn.SessionID)
	if !ok {
		return false
	}
	turn.Intent = pending.Intent
	if pending.Datetime != "" {
		turn.Entities.Datetime = pending.Datetime
	}
	return true
}

func actionableIntent(intent string) bool {
	switch intent {
	case core.IntentGreet, core.IntentHelp,
		core.IntentCurrentWeather, core.IntentForecast, core.IntentAlerts:
		return true
	}
	return false
}

// deferTurn marks the turn location-unknown and remembers what was asked so
// the next turn carrying a location can complete it.
func (p *Policy) deferTurn(turn *core.Turn) {
	turn.State = core.StateLocationUnknown
	p.sessions.SetPendingIntent(turn.SessionID, core.PendingIntent{
		Intent:   turn.Intent,
		Datetime: turn.Entities.Datetime,
	})
}

// resolveLocation prefers an explicit location entity (overwriting session
// memory) and falls back to the session's last known location.
func (p *Policy) resolveLocation(turn *core.Turn) string {
	if loc := turn.Entities.Location; loc != "" {
		p.sessions.SetLocation(turn.SessionID, core.LocationRef{Name: loc})
		turn.ResolvedLocation = loc
		turn.State = core.StateLocationResolved
		return loc
	}
	if ref, ok := p.sessions.GetLocation(turn.SessionID); ok {
		turn.ResolvedLocation = ref.Name
		turn.State = core.StateLocationResolved
		return ref.Name
	}
	return ""
}

// resolveCoordinates resolves through the geocode cache; concurrent misses
// for the same location collapse to one provider call.
func (p *Policy) resolveCoordinates(ctx context.Context, location string) (core.Coordinates, error) {
	return p.geocodeCache.GetOrCompute(ctx, location, func(ctx context.Context) (core.Coordinates, error) {
		t0 := p.now()
		coords, err := p.geocoder.Resolve(ctx, location)
		p.logUpstream("geocode", t0, err)
		return coords, err
	})
}

// logUpstream records one provider call, using the richer BotLogger helper
// when the configured logger carries one.
func (p *Policy) logUpstream(service string, start time.Time, err error) {
	dur := p.now().Sub(start)
	if bl, ok := p.logger.(*logging.BotLogger); ok {
		bl.LogUpstreamCall(service, dur, err)
		return
	}
	p.logger.Debug("upstream call", "service", service, "duration", dur, "success", err == nil)
}

func (p *Policy) answerForecast(ctx context.Context, turn *core.Turn, location string, coords core.Coordinates) {
	periods, err := p.forecastCache.GetOrCompute(ctx, coords.Key(), func(ctx context.Context) ([]core.ForecastPeriod, error) {
		t0 := p.now()
		periods, err := p.weather.ForecastPeriods(ctx, coords)
		p.logUpstream("forecast", t0, err)
		return periods, err
	})
	if err != nil {
		p.logger.Error("forecast fetch failed", "location", location, "error", err)
		turn.Reply = replyUnavailable
		return
	}
	turn.State = core.StateDataFetched

	when := turn.Entities.Datetime
	if turn.Intent == core.IntentCurrentWeather {
		// Current weather always reads as today's first period.
		when = "today"
	}
	period, err := SelectPeriod(periods, when)
	if err != nil {
		turn.Reply = replyNoForecast(location)
		return
	}
	turn.SelectedPeriod = &period
	turn.Reply = composeForecastReply(location, period)
	turn.State = core.StateReplied
	p.sessions.ClearPendingIntent(turn.SessionID)
}

func (p *Policy) answerAlerts(ctx context.Context, turn *core.Turn, location string, coords core.Coordinates) {
	alerts, err := p.alertsCache.GetOrCompute(ctx, coords.Key(), func(ctx context.Context) ([]core.AlertSummary, error) {
		t0 := p.now()
		alerts, err := p.weather.ActiveAlerts(ctx, coords)
		p.logUpstream("alerts", t0, err)
		return alerts, err
	})
	if err != nil {
		p.logger.Error("alerts fetch failed", "location", location, "error", err)
		turn.Reply = replyUnavailable
		return
	}
	turn.State = core.StateDataFetched
	turn.Reply = composeAlertsReply(location, alerts)
	turn.State = core.StateReplied
	p.sessions.ClearPendingIntent(turn.SessionID)
}

// finish stamps latency, appends the session snapshot and records the turn.
func (p *Policy) finish(ctx context.Context, turn core.Turn, start time.Time) core.Turn {
	turn.Latency = p.now().Sub(start)

	p.sessions.AppendSnapshot(turn.SessionID, core.TurnSnapshot{
		Intent:     turn.Intent,
		Confidence: turn.Confidence,
		Entities:   turn.Entities,
		Timestamp:  p.now(),
	})

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, turn); err != nil {
			p.logger.Warn("interaction record failed", "error", err)
		}
	}
	p.logClose(turn)
	return turn
}

func (p *Policy) logClose(turn core.Turn) {
	if bl, ok := p.logger.(*logging.BotLogger); ok {
		bl.LogTurn(turn.SessionID, turn.Intent, turn.Confidence, string(turn.State), turn.Latency)
		return
	}
	p.logger.Info("turn completed", "session_id", turn.SessionID, "intent", turn.Intent,
		"confidence", turn.Confidence, "state", string(turn.State), "latency", turn.Latency)
}

// SeedLocation stores a session's location without running the classifier.
// The location is canonicalized and geocoded first so only resolvable
// locations enter session memory.
func (p *Policy) SeedLocation(ctx context.Context, sessionID, location string) (core.LocationRef, error) {
	canonical := nlu.CanonicalizeLocation(location)
	if canonical == "" {
		return core.LocationRef{}, core.ErrLocationNotFound
	}
	coords, err := p.resolveCoordinates(ctx, canonical)
	if err != nil {
		return core.LocationRef{}, err
	}
	ref := core.LocationRef{Name: canonical, Coords: &coords}
	p.sessions.SetLocation(sessionID, ref)
	return ref, nil
}

// Snapshot reports provider and cache state for health checks.
func (p *Policy) Snapshot() Diagnostics {
	return Diagnostics{
		GeoProvider: p.geocoder.Name(),
		TTLSeconds: map[string]int{
			"geocode":  int(p.geocodeCache.TTL() / time.Second),
			"forecast": int(p.forecastCache.TTL() / time.Second),
			"alerts":   int(p.alertsCache.TTL() / time.Second),
		},
		Caches: map[string]cache.Stats{
			"geocode":  p.geocodeCache.Metrics(),
			"forecast": p.forecastCache.Metrics(),
			"alerts":   p.alertsCache.Metrics(),
		},
		Sessions: p.sessions.Len(),
	}
}
