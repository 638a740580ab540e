package main

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/geojsonfile"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/config"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/pipeline"
)

// sources lists the FIRMS feeds in the order duplicates are resolved.
func sources(cfg *config.Config) []domain.Source {
	return []domain.Source{
		{Name: "modis", Label: "NASA FIRMS MODIS", URL: cfg.ModisURL, SatellitePrefix: "MODIS"},
		{Name: "viirs", Label: "NASA FIRMS VIIRS", URL: cfg.ViirsURL, SatellitePrefix: "VIIRS"},
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	retriever := firms.NewClient(cfg.FirmsTimeout, cfg.FirmsMaxBodyBytes, cfg.FirmsRetries, metrics, logger)

	// Wind enrichment is feature-flagged via INCLUDE_WIND / --no-wind.
	var wind domain.WindProvider
	if cfg.IncludeWind {
		client := openmeteo.NewClient(cfg.WindURL, cfg.WindTimeout, cfg.WindRatePerSec, metrics, logger)
		wind = openmeteo.NewCachedProvider(client, cfg.WindCacheSize, cfg.WindCachePrecision, metrics)
		logger.Info("wind enrichment enabled",
			"concurrency", cfg.WindConcurrency,
			"rate_per_sec", cfg.WindRatePerSec,
			"cache_size", cfg.WindCacheSize,
		)
	} else {
		logger.Info("wind enrichment disabled")
	}

	loaders := []pipeline.Loader{geojsonfile.NewWriter(cfg.OutputPath, logger)}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	model := domain.DefaultSpreadModel()
	model.MaxKM = cfg.SpreadMaxKM
	opts := pipeline.Options{
		DedupeThreshold: cfg.DedupeThresholdDeg,
		WindConcurrency: cfg.WindConcurrency,
		WindFallback:    domain.Wind{SpeedKPH: cfg.WindFallbackSpeedKPH, DirectionDeg: cfg.WindFallbackDirection},
		Model:           model,
	}

	p := pipeline.New(domain.NewRegistry(sources(cfg)), retriever, wind, opts, loaders, logger, metrics)

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		if err := srv.Listen(); err != nil {
			return err
		}
		serveCtx, stopServe := context.WithCancel(context.Background())
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.Serve(serveCtx, cfg.ShutdownTimeout); err != nil {
				logger.Error("metrics listener error", "error", err)
			}
		}()
		defer func() {
			stopServe()
			<-served
		}()
	}

	res, err := p.Run(runCtx, pipeline.Request{Region: cfg.Region, IncludeWind: cfg.IncludeWind})
	logSummary(logger, res)

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", werr)
		}
	}
	return err
}

func logSummary(logger *slog.Logger, res pipeline.Result) {
	s := res.Summary
	attrs := []any{
		"region", res.Region.Key,
		"total", s.Total,
		"high", s.ByConfidence[domain.ConfidenceHigh],
		"nominal", s.ByConfidence[domain.ConfidenceNominal],
		"low", s.ByConfidence[domain.ConfidenceLow],
		"avg_spread_km", s.AvgSpreadKM,
		"max_spread_km", s.MaxSpreadKM,
		"wind_enriched", s.WindEnriched,
		"wind_fallbacks", res.WindFallbacks,
		"duplicates", res.Duplicates,
		"invalid", res.Invalid,
	}

	sats := make([]string, 0, len(s.SatelliteCounts))
	for name := range s.SatelliteCounts {
		sats = append(sats, name)
	}
	sort.Strings(sats)
	for _, name := range sats {
		attrs = append(attrs, "satellite_"+name, s.SatelliteCounts[name])
	}

	logger.Info("run summary", attrs...)
}
