package domain

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// EmptyCollectionNote is set on metadata when no hotspots were emitted.
const EmptyCollectionNote = "No active hotspots detected"

// FeatureCollection is the GeoJSON output document with a provenance block.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Metadata Metadata  `json:"metadata"`
	Features []Feature `json:"features"`
}

// Metadata describes when and how a collection was produced.
type Metadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	TotalFeatures   int       `json:"total_features"`
	DataSources     []string  `json:"data_sources"`
	PredictionModel string    `json:"prediction_model"`
	Region          string    `json:"region,omitempty"`
	Note            string    `json:"note,omitempty"`
}

// Feature is one hotspot as a GeoJSON point.
type Feature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// FeatureProperties carries the hotspot attributes. Wind fields are present
// only when enrichment ran.
type FeatureProperties struct {
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Brightness     float64    `json:"brightness"`
	AcqDatetime    time.Time  `json:"acq_datetime"`
	Confidence     Confidence `json:"confidence"`
	Satellite      string     `json:"satellite"`
	SpreadRadiusKM float64    `json:"spread_radius_km"`
	WindSpeedKPH   *float64   `json:"wind_speed_kph,omitempty"`
	WindDirection  *float64   `json:"wind_direction,omitempty"`
}

// CollectionInfo is the provenance attached to a built collection.
type CollectionInfo struct {
	Region      string
	DataSources []string
}

// BuildStats counts hotspots rejected by the builder.
type BuildStats struct {
	Invalid int
}

// BuildFeatureCollection serializes hotspots into a feature collection in
// input order. Hotspots with out-of-range coordinates are logged and dropped;
// a missing spread radius is computed with default wind.
func BuildFeatureCollection(hotspots []Hotspot, info CollectionInfo, model SpreadModel, logger *slog.Logger) (FeatureCollection, BuildStats) {
	var stats BuildStats
	features := make([]Feature, 0, len(hotspots))

	for _, h := range hotspots {
		f, err := buildFeature(h, model)
		if err != nil {
			stats.Invalid++
			logger.Warn("dropping hotspot", "error", err)
			continue
		}
		features = append(features, f)
	}

	sources := info.DataSources
	if sources == nil {
		sources = []string{}
	}
	meta := Metadata{
		GeneratedAt:     Now(),
		TotalFeatures:   len(features),
		DataSources:     sources,
		PredictionModel: PredictionModelName,
		Region:          info.Region,
	}
	if len(features) == 0 {
		meta.Note = EmptyCollectionNote
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Metadata: meta,
		Features: features,
	}, stats
}

func buildFeature(h Hotspot, model SpreadModel) (Feature, error) {
	if !h.ValidCoordinates() {
		return Feature{}, &ValidationError{Lat: h.Lat, Lon: h.Lon, Reason: "coordinates out of range"}
	}
	if h.Confidence == "" {
		return Feature{}, &ValidationError{Lat: h.Lat, Lon: h.Lon, Reason: "missing confidence"}
	}
	if h.SpreadRadiusKM == nil {
		r := model.RadiusDefaultWind(h.Brightness, h.Confidence)
		h.SpreadRadiusKM = &r
	}

	pt, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{h.Lon, h.Lat})
	if err != nil {
		return Feature{}, fmt.Errorf("build point: %w", err)
	}
	g, err := geojson.Encode(pt)
	if err != nil {
		return Feature{}, fmt.Errorf("encode point: %w", err)
	}

	props := FeatureProperties{
		Lat:            h.Lat,
		Lon:            h.Lon,
		Brightness:     h.Brightness,
		AcqDatetime:    h.AcquiredAt.UTC(),
		Confidence:     h.Confidence,
		Satellite:      h.Satellite,
		SpreadRadiusKM: *h.SpreadRadiusKM,
	}
	if h.Wind != nil {
		speed, dir := h.Wind.SpeedKPH, h.Wind.DirectionDeg
		props.WindSpeedKPH = &speed
		props.WindDirection = &dir
	}

	return Feature{Type: "Feature", Properties: props, Geometry: g}, nil
}
