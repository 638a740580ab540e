package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry([]Source{testModis, testViirs})

	tests := []struct {
		key      string
		wantKey  string
		bounds   BoundingBox
		fallback bool
	}{
		{"california", RegionCalifornia, BoundingBox{32, 42, -125, -114}, false},
		{" Australia ", RegionAustralia, BoundingBox{-44, -10, 112, 155}, false},
		{"global", RegionGlobal, GlobalBounds(), false},
		{"atlantis", RegionGlobal, GlobalBounds(), true},
		{"", RegionGlobal, GlobalBounds(), true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			r := reg.Lookup(tt.key)
			assert.Equal(t, tt.wantKey, r.Key)
			assert.Equal(t, tt.bounds, r.Bounds)
			assert.Equal(t, tt.fallback, r.Fallback)
			assert.Equal(t, []string{"NASA FIRMS MODIS", "NASA FIRMS VIIRS"}, r.DataSources())
		})
	}
}

func TestRegistry_FallbackDoesNotLeak(t *testing.T) {
	reg := NewRegistry([]Source{testModis})
	_ = reg.Lookup("unknown")
	assert.False(t, reg.Lookup("global").Fallback)
}

func TestDefaults_AreFreshValues(t *testing.T) {
	b := GlobalBounds()
	b.LatMax = 0
	assert.Equal(t, 90.0, GlobalBounds().LatMax)

	w := DefaultFallbackWind()
	w.SpeedKPH = 0
	assert.Equal(t, DefaultWindKPH, DefaultFallbackWind().SpeedKPH)
}

func TestBoundingBox_Contains(t *testing.T) {
	box := BoundingBox{LatMin: 32, LatMax: 42, LonMin: -125, LonMax: -114}

	assert.True(t, box.Contains(38.58, -122.82))
	assert.True(t, box.Contains(32, -125))
	assert.True(t, box.Contains(42, -114))
	assert.False(t, box.Contains(42.01, -120))
	assert.False(t, box.Contains(35, -113.99))
}

func TestHotspot_ValidCoordinates(t *testing.T) {
	assert.True(t, Hotspot{Lat: 90, Lon: -180}.ValidCoordinates())
	assert.False(t, Hotspot{Lat: 90.1, Lon: 0}.ValidCoordinates())
	assert.False(t, Hotspot{Lat: 0, Lon: 180.1}.ValidCoordinates())
}
