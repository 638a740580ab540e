package domain

import "math"

// DefaultWindKPH is assumed when no wind observation is available.
const DefaultWindKPH = 20.0

// PredictionModelName is written to output metadata.
const PredictionModelName = "6-hour empirical spread model"

// confidenceFactors scale the spread rate by detection reliability.
var confidenceFactors = map[Confidence]float64{
	ConfidenceLow:     0.7,
	ConfidenceNominal: 1.0,
	ConfidenceHigh:    1.3,
}

// SpreadModel estimates how far a fire grows over a fixed horizon:
//
//	temp   = clamp((brightness-300)/40, 0.5, 2.5)
//	conf   = low 0.7 | nominal 1.0 | high 1.3
//	wind   = 1 + (windKPH/30)^0.8
//	radius = clamp(BaseRateKPH * temp * conf * wind * HorizonHours, MinKM, MaxKM)
//
// rounded to one decimal place.
type SpreadModel struct {
	BaseRateKPH  float64
	HorizonHours float64
	MinKM        float64
	MaxKM        float64
}

// DefaultSpreadModel returns the model calibrated for live FIRMS data.
func DefaultSpreadModel() SpreadModel {
	return SpreadModel{
		BaseRateKPH:  0.3,
		HorizonHours: 6,
		MinKM:        1.0,
		MaxKM:        15.0,
	}
}

// Radius returns the spread radius in km.
func (m SpreadModel) Radius(brightnessK float64, confidence Confidence, windKPH float64) float64 {
	temp := clamp((brightnessK-300)/40, 0.5, 2.5)

	conf, ok := confidenceFactors[confidence]
	if !ok {
		conf = 1.0
	}

	if windKPH < 0 || math.IsNaN(windKPH) {
		windKPH = 0
	}
	wind := 1 + math.Pow(windKPH/30, 0.8)

	radius := clamp(m.BaseRateKPH*temp*conf*wind*m.HorizonHours, m.MinKM, m.MaxKM)
	return math.Round(radius*10) / 10
}

// RadiusDefaultWind returns the spread radius assuming DefaultWindKPH.
func (m SpreadModel) RadiusDefaultWind(brightnessK float64, confidence Confidence) float64 {
	return m.Radius(brightnessK, confidence, DefaultWindKPH)
}

// Estimate sets the hotspot's spread radius from its wind reading, or the
// default wind when it has none.
func (m SpreadModel) Estimate(h Hotspot) Hotspot {
	wind := DefaultWindKPH
	if h.Wind != nil {
		wind = h.Wind.SpeedKPH
	}
	r := m.Radius(h.Brightness, h.Confidence, wind)
	h.SpreadRadiusKM = &r
	return h
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
