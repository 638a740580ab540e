package domain

import "strings"

// Region keys known to the registry.
const (
	RegionCalifornia = "california"
	RegionAustralia  = "australia"
	RegionGlobal     = "global"
)

// BoundingBox is an inclusive latitude/longitude filter in degrees.
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// GlobalBounds returns a box spanning the whole planet.
func GlobalBounds() BoundingBox {
	return BoundingBox{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}
}

// Source is one satellite feed.
type Source struct {
	Name            string // "modis", "viirs"
	Label           string // provenance label written to output metadata
	URL             string
	SatellitePrefix string // prefix for unmapped satellite codes
}

// Region scopes a run to a bounding box and the feeds covering it.
type Region struct {
	Key     string
	Bounds  BoundingBox
	Sources []Source
	// Fallback is true when the requested key was unknown and the global
	// region was substituted.
	Fallback bool
}

// DataSources returns the provenance labels of the region's feeds in order.
func (r Region) DataSources() []string {
	out := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, s.Label)
	}
	return out
}

// Registry maps region keys to bounding boxes and feed sets. All FIRMS
// global feeds are filtered locally, so every region shares the same sources.
type Registry struct {
	regions map[string]Region
}

// NewRegistry builds the static region table over the given feeds. Source
// order is preserved and determines duplicate resolution downstream.
func NewRegistry(sources []Source) *Registry {
	srcs := append([]Source(nil), sources...)
	return &Registry{
		regions: map[string]Region{
			RegionCalifornia: {
				Key:     RegionCalifornia,
				Bounds:  BoundingBox{LatMin: 32.0, LatMax: 42.0, LonMin: -125.0, LonMax: -114.0},
				Sources: srcs,
			},
			RegionAustralia: {
				Key:     RegionAustralia,
				Bounds:  BoundingBox{LatMin: -44.0, LatMax: -10.0, LonMin: 112.0, LonMax: 155.0},
				Sources: srcs,
			},
			RegionGlobal: {
				Key:     RegionGlobal,
				Bounds:  GlobalBounds(),
				Sources: srcs,
			},
		},
	}
}

// Lookup returns the region for key. Unknown keys fall back to the global
// region with Fallback set.
func (r *Registry) Lookup(key string) Region {
	if region, ok := r.regions[strings.ToLower(strings.TrimSpace(key))]; ok {
		return region
	}
	region := r.regions[RegionGlobal]
	region.Fallback = true
	return region
}

// Keys lists the known region keys.
func (r *Registry) Keys() []string {
	return []string{RegionCalifornia, RegionAustralia, RegionGlobal}
}
