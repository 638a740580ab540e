package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// FeedRetriever downloads the raw CSV body of a feed.
type FeedRetriever interface {
	Fetch(ctx context.Context, src domain.Source) ([]byte, error)
}

// Loader writes a finished feature collection to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, fc domain.FeatureCollection) error
}

// Options tunes the model stages of a run.
type Options struct {
	DedupeThreshold float64
	WindConcurrency int
	WindFallback    domain.Wind
	Model           domain.SpreadModel
}

// DefaultOptions returns the stock thresholds and model.
func DefaultOptions() Options {
	return Options{
		DedupeThreshold: domain.DefaultDedupeThresholdDeg,
		WindConcurrency: 4,
		WindFallback:    domain.DefaultFallbackWind(),
		Model:           domain.DefaultSpreadModel(),
	}
}

// Request selects what a run produces.
type Request struct {
	Region      string
	IncludeWind bool
}

// Result reports what a run did.
type Result struct {
	Region        domain.Region
	Collection    domain.FeatureCollection
	FailedSources []string
	Rows          domain.NormalizeStats
	Duplicates    int
	WindFallbacks int
	Invalid       int
	Summary       domain.Summary
	Duration      time.Duration
}

// Stages reported by (*Pipeline).Stage while a run progresses.
const (
	StageIdle      = "idle"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageDone      = "done"
)

// Pipeline orchestrates one extract-enrich-load pass over the FIRMS feeds.
type Pipeline struct {
	registry    *domain.Registry
	retriever   FeedRetriever
	transformer *SpreadTransformer
	windEnabled bool
	opts        Options
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	stage       atomic.Value // string
}

// New creates a Pipeline with the given stages and observability. wind may
// be nil, in which case enrichment is skipped even when requested.
func New(registry *domain.Registry, retriever FeedRetriever, wind domain.WindProvider, opts Options, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.WindConcurrency < 1 {
		opts.WindConcurrency = 1
	}
	return &Pipeline{
		registry:    registry,
		retriever:   retriever,
		transformer: NewTransformer(wind, opts.WindFallback, opts.Model, logger),
		windEnabled: wind != nil,
		opts:        opts,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// Stage returns the step the current run is in.
func (p *Pipeline) Stage() string {
	if s, ok := p.stage.Load().(string); ok {
		return s
	}
	return StageIdle
}

// CheckReadiness returns nil once a run has retrieved its feeds, or an error
// describing why the pipeline is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	switch p.Stage() {
	case StageIdle, StageExtract:
		return errors.New("feeds not retrieved yet")
	}
	return nil
}

// Run executes a full pass. Feed and enrichment failures degrade the output
// but never fail the run; only a loader error is returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	region := p.registry.Lookup(req.Region)
	if region.Fallback {
		p.logger.Warn("unknown region, using global", "requested", req.Region)
	}
	includeWind := req.IncludeWind && p.windEnabled
	if includeWind {
		p.metrics.WindEnabled.Set(1)
	} else {
		p.metrics.WindEnabled.Set(0)
	}

	p.logger.Info("pipeline started",
		"region", region.Key,
		"sources", len(region.Sources),
		"include_wind", includeWind,
	)

	res := Result{Region: region}

	p.stage.Store(StageExtract)
	hotspots := p.extract(ctx, region, &res)
	p.stage.Store(StageTransform)

	unique := domain.Deduplicate(hotspots, p.opts.DedupeThreshold)
	res.Duplicates = len(hotspots) - len(unique)
	p.metrics.DuplicatesDropped.Add(float64(res.Duplicates))

	enriched := p.transform(ctx, unique, includeWind, &res)

	fc, stats := domain.BuildFeatureCollection(enriched, domain.CollectionInfo{
		Region:      region.Key,
		DataSources: region.DataSources(),
	}, p.opts.Model, p.logger)
	res.Collection = fc
	res.Invalid = stats.Invalid
	res.Summary = domain.Summarize(fc)
	p.metrics.FeaturesInvalid.Add(float64(stats.Invalid))
	p.metrics.FeaturesEmitted.Add(float64(fc.Metadata.TotalFeatures))

	p.stage.Store(StageLoad)
	err := p.load(ctx, fc)
	p.stage.Store(StageDone)

	res.Duration = time.Since(start)
	p.metrics.RunDuration.Observe(res.Duration.Seconds())
	if err != nil {
		return res, err
	}
	p.metrics.LastSuccess.Set(float64(time.Now().Unix()))

	p.logger.Info("pipeline finished",
		"region", region.Key,
		"features", fc.Metadata.TotalFeatures,
		"duplicates", res.Duplicates,
		"wind_fallbacks", res.WindFallbacks,
		"failed_sources", len(res.FailedSources),
		"duration", res.Duration,
	)
	return res, nil
}

// extract fetches and normalizes every source concurrently. A failed source
// contributes nothing. Output keeps registry source order.
func (p *Pipeline) extract(ctx context.Context, region domain.Region, res *Result) []domain.Hotspot {
	results := make([]domain.Normalized, len(region.Sources))
	failed := make([]bool, len(region.Sources))

	var g errgroup.Group
	for i, src := range region.Sources {
		g.Go(func() error {
			body, err := p.retriever.Fetch(ctx, src)
			if err != nil {
				p.logger.Error("feed retrieval failed, skipping source",
					"source", src.Name,
					"url", src.URL,
					"error", err,
				)
				failed[i] = true
				return nil
			}
			results[i] = domain.NormalizeFeed(body, region, src, p.logger)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	var hotspots []domain.Hotspot
	for i, src := range region.Sources {
		if failed[i] {
			res.FailedSources = append(res.FailedSources, src.Name)
			continue
		}
		n := results[i]
		p.recordRows(src.Name, n.Stats)
		res.Rows = addStats(res.Rows, n.Stats)
		hotspots = append(hotspots, n.Hotspots...)

		p.logger.Info("feed normalized",
			"source", src.Name,
			"rows", n.Stats.Rows,
			"accepted", n.Stats.Accepted,
			"out_of_region", n.Stats.OutOfRegion,
			"malformed", n.Stats.Malformed,
		)
	}
	return hotspots
}

// transform enriches and estimates each hotspot. Wind lookups fan out up to
// WindConcurrency at a time; results are written by index to keep order.
func (p *Pipeline) transform(ctx context.Context, hotspots []domain.Hotspot, includeWind bool, res *Result) []domain.Hotspot {
	out := make([]domain.Hotspot, len(hotspots))
	if !includeWind {
		for i, h := range hotspots {
			out[i], _ = p.transformer.Transform(ctx, h, false)
		}
		return out
	}

	var fallbacks atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.opts.WindConcurrency)
	for i, h := range hotspots {
		g.Go(func() error {
			enriched, fellBack := p.transformer.Transform(ctx, h, true)
			if fellBack {
				fallbacks.Add(1)
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	res.WindFallbacks = int(fallbacks.Load())
	p.metrics.WindFallbacks.Add(float64(res.WindFallbacks))
	return out
}

// load hands the collection to every loader. A failing loader does not stop
// the others; all failures are returned together.
func (p *Pipeline) load(ctx context.Context, fc domain.FeatureCollection) error {
	var errs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, fc); err != nil {
			p.logger.Error("load failed", "sink", l.Name(), "error", err)
			p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("load feature collection: %w", errors.Join(errs...))
	}
	return nil
}

func (p *Pipeline) recordRows(source string, s domain.NormalizeStats) {
	p.metrics.RowsProcessed.WithLabelValues(source, "accepted").Add(float64(s.Accepted))
	p.metrics.RowsProcessed.WithLabelValues(source, "short").Add(float64(s.ShortRows))
	p.metrics.RowsProcessed.WithLabelValues(source, "malformed").Add(float64(s.Malformed))
	p.metrics.RowsProcessed.WithLabelValues(source, "out_of_region").Add(float64(s.OutOfRegion))
	p.metrics.RowsProcessed.WithLabelValues(source, "timestamp_fallback").Add(float64(s.TimestampFallbacks))
}

func addStats(a, b domain.NormalizeStats) domain.NormalizeStats {
	return domain.NormalizeStats{
		Rows:               a.Rows + b.Rows,
		Accepted:           a.Accepted + b.Accepted,
		ShortRows:          a.ShortRows + b.ShortRows,
		Malformed:          a.Malformed + b.Malformed,
		OutOfRegion:        a.OutOfRegion + b.OutOfRegion,
		TimestampFallbacks: a.TimestampFallbacks + b.TimestampFallbacks,
	}
}
