package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
)

// Synthetic FIRMS feeds. Columns follow the live MODIS C6.1 and VIIRS C2
// 24h CSV exports.
const (
	modisHeader = "latitude,longitude,brightness,scan,track,acq_date,acq_time,satellite,confidence,version,bright_t31,frp,daynight"
	viirsHeader = "latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,confidence,version,bright_ti5,frp,daynight"
)

func modisRow(lat, lon, brightness float64, hhmm, sat string, confidence int) string {
	return fmt.Sprintf("%g,%g,%g,1.0,1.0,2024-08-01,%s,%s,%d,6.1NRT,300.1,20.5,D", lat, lon, brightness, hhmm, sat, confidence)
}

func viirsRow(lat, lon, brightness float64, hhmm, confidence string) string {
	return fmt.Sprintf("%g,%g,%g,0.4,0.4,2024-08-01,%s,N,%s,2.0NRT,290.0,5.0,D", lat, lon, brightness, hhmm, confidence)
}

func feed(header string, rows ...string) []byte {
	return []byte(header + "\n" + strings.Join(rows, "\n") + "\n")
}

var (
	modisSource = domain.Source{Name: "modis", Label: "NASA FIRMS MODIS", URL: "http://firms.test/modis.csv", SatellitePrefix: "MODIS"}
	viirsSource = domain.Source{Name: "viirs", Label: "NASA FIRMS VIIRS", URL: "http://firms.test/viirs.csv", SatellitePrefix: "VIIRS"}
)

// --- mocks ---

type mockRetriever struct {
	bodies map[string][]byte
	errs   map[string]error
}

func (m *mockRetriever) Fetch(_ context.Context, src domain.Source) ([]byte, error) {
	if err := m.errs[src.Name]; err != nil {
		return nil, err
	}
	return m.bodies[src.Name], nil
}

type mockWind struct {
	mu    sync.Mutex
	wind  domain.Wind
	err   error
	calls int
}

func (m *mockWind) CurrentWind(_ context.Context, _, _ float64) (domain.Wind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.wind, m.err
}

type mockLoader struct {
	name   string
	err    error
	loaded []domain.FeatureCollection
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) Load(_ context.Context, fc domain.FeatureCollection) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, fc)
	return nil
}
