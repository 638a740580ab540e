package domain

// Summary aggregates a feature collection for run reports.
type Summary struct {
	Total           int
	ByConfidence    map[Confidence]int
	AvgSpreadKM     float64
	MaxSpreadKM     float64
	WindEnriched    int
	SatelliteCounts map[string]int
}

// Summarize computes confidence, satellite and spread statistics.
func Summarize(fc FeatureCollection) Summary {
	s := Summary{
		Total:           len(fc.Features),
		ByConfidence:    make(map[Confidence]int),
		SatelliteCounts: make(map[string]int),
	}
	if s.Total == 0 {
		return s
	}

	var sum float64
	for _, f := range fc.Features {
		p := f.Properties
		s.ByConfidence[p.Confidence]++
		s.SatelliteCounts[p.Satellite]++
		sum += p.SpreadRadiusKM
		if p.SpreadRadiusKM > s.MaxSpreadKM {
			s.MaxSpreadKM = p.SpreadRadiusKM
		}
		if p.WindSpeedKPH != nil {
			s.WindEnriched++
		}
	}
	s.AvgSpreadKM = sum / float64(s.Total)
	return s
}
