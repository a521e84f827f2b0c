// Package pipeline orchestrates one aggregation run: fetch every enabled
// source, parse, filter, normalize, classify, deduplicate, publish.
//
// Fetching is the only concurrent stage. Results are collected by source
// position and processed in registry order, so the published dataset is
// identical no matter which fetch finished first. Per-source and per-record
// failures are contained and counted; only configuration and publish
// errors end the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mutiny19/indy-events/internal/adapter"
	"github.com/mutiny19/indy-events/internal/classify"
	"github.com/mutiny19/indy-events/internal/config"
	"github.com/mutiny19/indy-events/internal/dedup"
	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/fetch"
	"github.com/mutiny19/indy-events/internal/filter"
	"github.com/mutiny19/indy-events/internal/logger"
	"github.com/mutiny19/indy-events/internal/normalize"
	"github.com/mutiny19/indy-events/internal/publish"
	"github.com/mutiny19/indy-events/internal/source"
)

// ErrNoSourcesSucceeded ends a run in which every fetch failed. The
// previous dataset is left untouched.
var ErrNoSourcesSucceeded = errors.New("no sources succeeded, nothing published")

// Counters accumulates one run's per-stage tallies for the summary line.
type Counters struct {
	SourcesTotal     int
	SourcesSucceeded int
	SourcesFailed    int
	RecordsParsed    int
	RecordsSkipped   int
	RecordsFiltered  int
	RecordsRejected  int
	EventsPublished  int
}

// RunContext identifies one run and carries its counters.
type RunContext struct {
	RunID     string
	StartedAt time.Time
	Counters  Counters
}

// Pipeline wires the stages for one configuration.
type Pipeline struct {
	cfg *config.Config
	reg *source.Registry
	loc *time.Location

	// fetcherFor overrides fetcher construction, for tests.
	fetcherFor func(ctx context.Context, kind source.Kind) (fetch.Fetcher, func())
	geocoder   normalize.Geocoder
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcherFactory substitutes fetcher construction. The returned
// cleanup func may be nil.
func WithFetcherFactory(f func(ctx context.Context, kind source.Kind) (fetch.Fetcher, func())) Option {
	return func(p *Pipeline) { p.fetcherFor = f }
}

// WithGeocoder sets the geocoder used during normalization.
func WithGeocoder(g normalize.Geocoder) Option {
	return func(p *Pipeline) { p.geocoder = g }
}

// WithNow fixes the run clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a Pipeline from loaded configuration and registry.
func New(cfg *config.Config, reg *source.Registry, opts ...Option) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg: cfg,
		reg: reg,
		loc: loc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcherFor == nil {
		p.fetcherFor = p.defaultFetchers()
	}
	if p.geocoder == nil && cfg.Geocode.Enabled {
		p.geocoder = normalize.NewNominatim(cfg.Geocode.Endpoint, cfg.Geocode.Contact, cfg.Geocode.RegionBias)
	}
	return p, nil
}

// defaultFetchers shares one HTTP client across sources and launches the
// headless browser only when a rendered source actually asks for it.
func (p *Pipeline) defaultFetchers() func(ctx context.Context, kind source.Kind) (fetch.Fetcher, func()) {
	var (
		httpOnce    sync.Once
		httpFetcher *fetch.HTTPFetcher
		rendOnce    sync.Once
		renderer    *fetch.Renderer
	)
	return func(ctx context.Context, kind source.Kind) (fetch.Fetcher, func()) {
		if kind == source.KindRendered {
			var cleanup func()
			rendOnce.Do(func() {
				renderer = fetch.NewRenderer(ctx, fetch.RendererOptions{
					PoolSize:    p.cfg.Fetch.Render.PoolSize,
					WaitTimeout: time.Duration(p.cfg.Fetch.Render.WaitTimeoutSeconds) * time.Second,
					Timeout:     time.Duration(p.cfg.Fetch.Render.TimeoutSeconds) * time.Second,
					UserAgent:   p.cfg.Fetch.UserAgent,
				})
				cleanup = renderer.Close
			})
			return renderer, cleanup
		}
		httpOnce.Do(func() {
			httpFetcher = fetch.NewHTTP(p.cfg.FetchTimeout(), p.cfg.Fetch.UserAgent)
		})
		return httpFetcher, nil
	}
}

type fetchResult struct {
	body []byte
	err  error
}

// Run executes one aggregation run. The returned RunContext is valid even
// when err is non-nil.
func (p *Pipeline) Run(ctx context.Context) (*RunContext, error) {
	rc := &RunContext{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	log := logger.Fields{"run_id": rc.RunID}

	sources := p.reg.Enabled()
	rc.Counters.SourcesTotal = len(sources)
	logger.Info("starting run", logger.Fields{
		"run_id":  rc.RunID,
		"sources": len(sources),
	})

	results, cleanup := p.fetchAll(ctx, sources)
	defer cleanup()

	records := p.parseAll(rc, sources, results)
	records = p.applyRelevance(rc, records)
	events := p.normalizeAll(ctx, rc, records)

	deduper := dedup.New(p.cfg.Tolerance(), p.cfg.Dedup.SimilarityThreshold, p.reg.Order)
	events = deduper.Deduplicate(events)

	prev, err := publish.LoadPrevious(p.cfg.Output)
	if err != nil {
		logger.Warn("could not read previous dataset", logger.Fields{
			"run_id": rc.RunID,
			"error":  err.Error(),
		})
	} else {
		dedup.CarryCurated(events, prev.Events)
	}

	if rc.Counters.SourcesSucceeded == 0 {
		logger.Error("all sources failed", log, ErrNoSourcesSucceeded)
		return rc, ErrNoSourcesSucceeded
	}

	if err := publish.Publish(p.cfg.Output, events, p.now()); err != nil {
		return rc, fmt.Errorf("publishing dataset: %w", err)
	}
	rc.Counters.EventsPublished = len(events)

	logger.Info("run complete", logger.Fields{
		"run_id":            rc.RunID,
		"duration_ms":       time.Since(rc.StartedAt).Milliseconds(),
		"sources_succeeded": rc.Counters.SourcesSucceeded,
		"sources_failed":    rc.Counters.SourcesFailed,
		"records_parsed":    rc.Counters.RecordsParsed,
		"records_skipped":   rc.Counters.RecordsSkipped,
		"records_filtered":  rc.Counters.RecordsFiltered,
		"records_rejected":  rc.Counters.RecordsRejected,
		"events_published":  rc.Counters.EventsPublished,
	})
	return rc, nil
}

// fetchAll retrieves every source concurrently, bounded by the worker cap.
// Results land in a slice indexed by source position so downstream stages
// see registry order, not completion order.
func (p *Pipeline) fetchAll(ctx context.Context, sources []source.Source) ([]fetchResult, func()) {
	results := make([]fetchResult, len(sources))

	var cleanups []func()
	var mu sync.Mutex
	fetcherFor := func(kind source.Kind) fetch.Fetcher {
		mu.Lock()
		defer mu.Unlock()
		f, cleanup := p.fetcherFor(ctx, kind)
		if cleanup != nil {
			cleanups = append(cleanups, cleanup)
		}
		return f
	}

	workers := p.cfg.Fetch.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			f := fetcherFor(src.Kind())
			body, err := f.Fetch(ctx, src)
			results[i] = fetchResult{body: body, err: err}
		}(i, src)
	}
	wg.Wait()

	return results, func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}
}

// parseAll runs the matching adapter over each fetched body, in registry
// order. A fetch or parse error fails that source only.
func (p *Pipeline) parseAll(rc *RunContext, sources []source.Source, results []fetchResult) []event.Raw {
	opts := adapter.Options{
		Location:    p.loc,
		Now:         p.now,
		HorizonDays: p.cfg.Normalize.HorizonDays,
		MaxItems:    p.cfg.Normalize.MaxItemsPerSource,
	}

	var records []event.Raw
	for i, src := range sources {
		fields := logger.Fields{"run_id": rc.RunID, "source": src.Name}

		if err := results[i].err; err != nil {
			rc.Counters.SourcesFailed++
			logger.Error("source fetch failed", fields, err)
			continue
		}

		a, err := adapter.ForKind(src.Kind(), opts)
		if err != nil {
			rc.Counters.SourcesFailed++
			logger.Error("source misconfigured", fields, err)
			continue
		}

		res, err := a.Parse(src, results[i].body)
		if err != nil {
			rc.Counters.SourcesFailed++
			logger.Error("source parse failed", fields, err)
			continue
		}

		rc.Counters.SourcesSucceeded++
		rc.Counters.RecordsParsed += len(res.Records)
		rc.Counters.RecordsSkipped += res.Skipped
		if res.StructuralMiss {
			logger.Warn("selectors matched nothing, page structure may have changed", fields)
		}
		logger.Info("source parsed", logger.Fields{
			"run_id":  rc.RunID,
			"source":  src.Name,
			"records": len(res.Records),
			"skipped": res.Skipped,
		})
		records = append(records, res.Records...)
	}
	return records
}

func (p *Pipeline) applyRelevance(rc *RunContext, records []event.Raw) []event.Raw {
	f := filter.New(p.reg.Keywords, p.reg.ExcludedKeywords)
	if f.IsEmpty() {
		return records
	}
	kept := f.Apply(records)
	rc.Counters.RecordsFiltered = len(records) - len(kept)
	return kept
}

// normalizeAll converts raw records to canonical events and classifies
// their features. Classification reads the raw text, before link stripping.
func (p *Pipeline) normalizeAll(ctx context.Context, rc *RunContext, records []event.Raw) []*event.Event {
	var normOpts []normalize.Option
	if p.geocoder != nil {
		normOpts = append(normOpts, normalize.WithGeocoder(p.geocoder))
	}
	normOpts = append(normOpts, normalize.WithNow(p.now))
	norm := normalize.New(p.loc, p.cfg.Normalize.StaleDays, normOpts...)

	var events []*event.Event
	for _, raw := range records {
		ev, err := norm.Normalize(ctx, raw)
		if err != nil {
			rc.Counters.RecordsRejected++
			logger.Debug("record rejected", logger.Fields{
				"run_id": rc.RunID,
				"source": raw.Source,
				"title":  raw.Title,
				"reason": err.Error(),
			})
			continue
		}
		ev.Features = classify.Detect(raw.Title, raw.Description)
		events = append(events, ev)
	}
	return events
}
