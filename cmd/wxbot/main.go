// Package main runs the wxbot HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wxbot/wxbot/config"
	"github.com/wxbot/wxbot/core"
	"github.com/wxbot/wxbot/geocode"
	"github.com/wxbot/wxbot/logging"
	"github.com/wxbot/wxbot/metrics"
	"github.com/wxbot/wxbot/nlu"
	"github.com/wxbot/wxbot/policy"
	"github.com/wxbot/wxbot/server"
	"github.com/wxbot/wxbot/session"
	"github.com/wxbot/wxbot/weather"
)

const version = "1.0.0"

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	addr        string
	geoProvider string
	nluData     string
	showVersion bool
}

func parseFlags() cliOptions {
	opts := cliOptions{}
	flag.StringVar(&opts.addr, "addr", "", "HTTP bind address (overrides LISTEN_ADDR)")
	flag.StringVar(&opts.geoProvider, "geo-provider", "", "Geocoding backend: demo, census, csv (overrides GEO_PROVIDER)")
	flag.StringVar(&opts.nluData, "nlu-data", "", "Path to YAML intent corpus (overrides NLU_DATA_PATH)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("wxbot version %s\n", version)
		return nil
	}

	cfg := config.FromEnv()
	if opts.addr != "" {
		cfg.ListenAddr = opts.addr
	}
	if opts.geoProvider != "" {
		cfg.GeoProvider = opts.geoProvider
	}
	if opts.nluData != "" {
		cfg.NLUDataPath = opts.nluData
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
		Component: "wxbot",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classifier, err := buildClassifier(cfg.NLUDataPath)
	if err != nil {
		return err
	}

	geocoder, err := geocode.NewProvider(cfg.GeoProvider, func(o *geocode.ProviderOptions) {
		o.CensusURL = cfg.CensusURL
		o.CSVPath = cfg.CSVPath
		o.UserAgent = cfg.UserAgent
	})
	if err != nil {
		return err
	}

	weatherClient := weather.NewClient(func(o *weather.Options) {
		o.UserAgent = cfg.UserAgent
	})

	sessions := session.NewInMemoryStore(cfg.SessionMaxEntries, cfg.SessionTTL)

	var recorder core.Recorder
	if cfg.MetricsDSN != "" {
		pg, err := metrics.Open(ctx, cfg.MetricsDSN)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		recorder = pg
		logger.Info("interaction recording enabled")
	}

	p := policy.New(classifier, nlu.NewParser(), geocoder, weatherClient, sessions, func(o *policy.Options) {
		o.Logger = logger
		o.Recorder = recorder
		o.ConfidenceThreshold = cfg.ConfidenceThreshold
		o.GeocodeTTL = cfg.GeocodeTTL
		o.ForecastTTL = cfg.ForecastTTL
		o.AlertsTTL = cfg.AlertsTTL
		o.GeocodeCacheMax = cfg.GeocodeCacheMax
		o.ForecastCacheMax = cfg.ForecastCacheMax
		o.AlertsCacheMax = cfg.AlertsCacheMax
	})

	srv := server.NewServer(p, func(o *server.Options) {
		o.Logger = logger
		o.MaxConcurrent = cfg.MaxConcurrentTurns
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "geo_provider", geocoder.Name())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildClassifier(corpusPath string) (core.Classifier, error) {
	examples, err := loadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	classifier := nlu.NewTfidfClassifier()
	if err := classifier.Fit(examples); err != nil {
		return nil, fmt.Errorf("training intent classifier: %w", err)
	}
	return classifier, nil
}

func loadCorpus(path string) ([]nlu.Example, error) {
	if path != "" {
		return nlu.LoadExamples(path)
	}
	return nlu.BuiltinExamples()
}
