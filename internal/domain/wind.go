package domain

import (
	"context"
	"log/slog"
)

// WindProvider resolves current near-surface wind at a coordinate.
type WindProvider interface {
	CurrentWind(ctx context.Context, lat, lon float64) (Wind, error)
}

// DefaultFallbackWind returns the reading substituted when a lookup fails.
func DefaultFallbackWind() Wind {
	return Wind{SpeedKPH: DefaultWindKPH, DirectionDeg: 0}
}

// EnrichWithWind attaches wind conditions to a hotspot. Any provider failure
// is downgraded to the fallback reading (graceful degradation); the bool
// reports whether the fallback was used. A nil provider leaves the hotspot
// untouched.
func EnrichWithWind(ctx context.Context, h Hotspot, provider WindProvider, fallback Wind, logger *slog.Logger) (Hotspot, bool) {
	if provider == nil {
		return h, false
	}

	w, err := provider.CurrentWind(ctx, h.Lat, h.Lon)
	if err != nil {
		logger.Warn("wind lookup failed, using fallback",
			"error", &EnrichmentFailure{Lat: h.Lat, Lon: h.Lon, Err: err},
			"fallback_speed_kph", fallback.SpeedKPH,
			"fallback_direction_deg", fallback.DirectionDeg,
		)
		fb := fallback
		h.Wind = &fb
		return h, true
	}

	h.Wind = &w
	return h, false
}
