package domain

import "time"

// Confidence is the reliability bucket of a detection.
type Confidence string

const (
	ConfidenceLow     Confidence = "low"
	ConfidenceNominal Confidence = "nominal"
	ConfidenceHigh    Confidence = "high"
)

// Wind holds near-surface wind conditions at a hotspot.
type Wind struct {
	SpeedKPH     float64 `json:"speed_kph"`
	DirectionDeg float64 `json:"direction_deg"` // meteorological, 0-360
}

// Hotspot is the canonical fire-detection record.
type Hotspot struct {
	Lat        float64
	Lon        float64
	Brightness float64 // Kelvin
	AcquiredAt time.Time
	Confidence Confidence
	Satellite  string
	Source     string // feed name, e.g. "modis"

	// Populated by the spread estimator; nil until computed.
	SpreadRadiusKM *float64
	// Populated by wind enrichment; nil when enrichment did not run.
	Wind *Wind
}

// ValidCoordinates reports whether the hotspot lies within WGS-84 bounds.
func (h Hotspot) ValidCoordinates() bool {
	return h.Lat >= -90 && h.Lat <= 90 && h.Lon >= -180 && h.Lon <= 180
}
