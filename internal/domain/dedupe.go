package domain

import "math"

// DefaultDedupeThresholdDeg is roughly 1 km at mid-latitudes.
const DefaultDedupeThresholdDeg = 0.01

// Deduplicate drops hotspots closer than threshold (Euclidean distance on raw
// lat/lon degrees) to an earlier accepted hotspot. Input order decides which
// detection survives; attributes of duplicates are not merged.
//
// Accepted points are bucketed into a grid of threshold-sized cells, so a
// candidate only needs to be compared with the 3x3 neighbourhood of its own
// cell. The result is identical to comparing against every accepted point.
func Deduplicate(hotspots []Hotspot, threshold float64) []Hotspot {
	out := make([]Hotspot, 0, len(hotspots))
	if threshold <= 0 {
		return append(out, hotspots...)
	}

	grid := make(map[cell][]int, len(hotspots))
	for _, h := range hotspots {
		c := cellOf(h, threshold)
		if hasNeighbourWithin(grid, c, out, h, threshold) {
			continue
		}
		grid[c] = append(grid[c], len(out))
		out = append(out, h)
	}
	return out
}

type cell struct {
	lat, lon int64
}

func cellOf(h Hotspot, size float64) cell {
	return cell{
		lat: int64(math.Floor(h.Lat / size)),
		lon: int64(math.Floor(h.Lon / size)),
	}
}

func hasNeighbourWithin(grid map[cell][]int, c cell, accepted []Hotspot, h Hotspot, threshold float64) bool {
	for dLat := int64(-1); dLat <= 1; dLat++ {
		for dLon := int64(-1); dLon <= 1; dLon++ {
			for _, i := range grid[cell{lat: c.lat + dLat, lon: c.lon + dLon}] {
				if DegreeDistance(h, accepted[i]) < threshold {
					return true
				}
			}
		}
	}
	return false
}

// DegreeDistance is the planar distance between two hotspots in degrees.
func DegreeDistance(a, b Hotspot) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}
