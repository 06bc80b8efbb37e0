// Package wxbot provides a high-level façade over the dialogue policy and
// its service abstractions (intent classification, entity extraction,
// geocoding, weather data & session memory) enabling rapid construction of
// a conversational weather assistant. Most applications interact with this
// package by:
//  1. Creating a Bot via New() (optionally overriding default components)
//  2. Calling Respond for each user utterance
//
// All defaults are safe for local development and testing: the built-in
// TF-IDF classifier, the offline demo geocoder and in-memory sessions.
// Production deployments typically supply the Census geocoder, a metrics
// recorder and a structured logger.
package wxbot

import (
	"context"
	"time"

	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/geocode"
	"github.com/wxbot/wxbot/logging"
	"github.com/wxbot/wxbot/nlu"
	"github.com/wxbot/wxbot/policy"
	"github.com/wxbot/wxbot/session"
	"github.com/wxbot/wxbot/weather"
)

// Options configures the Bot instance.
type Options struct {
	// Components (default to local in-memory implementations if not provided)
	Classifier    core.Classifier
	Parser        core.EntityParser
	Geocoder      core.Geocoder
	WeatherClient core.WeatherClient
	SessionStore  core.SessionStore

	// Recorder persists completed turns. Nil disables recording.
	Recorder core.Recorder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// ConfidenceThreshold gates low-certainty turns.
	ConfidenceThreshold float64

	// Session memory tuning, used only when SessionStore is unset.
	SessionTTL        time.Duration
	SessionMaxEntries int
}

// Bot is the high-level façade aggregating the dialogue policy and its
// services.
type Bot struct {
	policy *policy.Policy
}

// New creates a Bot with optional overrides. Any unset component is
// initialized with a local default.
func New(optFns ...func(o *Options)) (*Bot, error) {
	opts := Options{
		Parser:              nlu.NewParser(),
		Geocoder:            geocode.NewDemoGeocoder(),
		WeatherClient:       weather.NewClient(),
		Logger:              logging.NoOpLogger{},
		ConfidenceThreshold: policy.DefaultConfidenceThreshold,
		SessionTTL:          30 * time.Minute,
		SessionMaxEntries:   5000,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Classifier == nil {
		examples, err := nlu.BuiltinExamples()
		if err != nil {
			return nil, err
		}
		classifier := nlu.NewTfidfClassifier()
		if err := classifier.Fit(examples); err != nil {
			return nil, err
		}
		opts.Classifier = classifier
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore(opts.SessionMaxEntries, opts.SessionTTL)
	}

	p := policy.New(opts.Classifier, opts.Parser, opts.Geocoder, opts.WeatherClient, opts.SessionStore, func(o *policy.Options) {
		o.Logger = opts.Logger
		o.Recorder = opts.Recorder
		o.ConfidenceThreshold = opts.ConfidenceThreshold
	})

	return &Bot{policy: p}, nil
}

// Respond runs one dialogue turn and returns the completed turn record.
func (b *Bot) Respond(ctx context.Context, sessionID, text string) core.Turn {
	return b.policy.HandleTurn(ctx, sessionID, text)
}

// SeedLocation stores a session's location ahead of any turns.
func (b *Bot) SeedLocation(ctx context.Context, sessionID, location string) (core.LocationRef, error) {
	return b.policy.SeedLocation(ctx, sessionID, location)
}

// Policy exposes the underlying policy for HTTP wiring.
func (b *Bot) Policy() *policy.Policy { return b.policy }

// Diagnostics reports provider and cache state.
func (b *Bot) Diagnostics() policy.Diagnostics { return b.policy.Snapshot() }
