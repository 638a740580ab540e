package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
)

// SpreadTransformer attaches wind conditions to a hotspot and estimates its
// spread radius.
type SpreadTransformer struct {
	wind     domain.WindProvider
	fallback domain.Wind
	model    domain.SpreadModel
	logger   *slog.Logger
}

// NewTransformer creates a SpreadTransformer. Pass a nil provider to disable
// wind enrichment; radii then use the model's default wind.
func NewTransformer(wind domain.WindProvider, fallback domain.Wind, model domain.SpreadModel, logger *slog.Logger) *SpreadTransformer {
	return &SpreadTransformer{
		wind:     wind,
		fallback: fallback,
		model:    model,
		logger:   logger,
	}
}

// Transform returns an enriched copy of h and whether the fallback wind was used.
func (t *SpreadTransformer) Transform(ctx context.Context, h domain.Hotspot, includeWind bool) (domain.Hotspot, bool) {
	fellBack := false
	if includeWind {
		h, fellBack = domain.EnrichWithWind(ctx, h, t.wind, t.fallback, t.logger)
	}
	return t.model.Estimate(h), fellBack
}
