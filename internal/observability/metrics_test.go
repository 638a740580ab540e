package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.DuplicatesDropped.Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.DuplicatesDropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DuplicatesDropped))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetricsForTesting()
	m.FeaturesEmitted.Add(42)
	m.FeedFetches.WithLabelValues("modis", "success").Inc()
	m.LastSuccess.Set(1722535200)

	path := filepath.Join(t.TempDir(), "wildfire.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "wildfire_etl_features_emitted_total 42")
	assert.Contains(t, out, `wildfire_etl_feed_fetches_total{outcome="success",source="modis"} 1`)
	assert.Contains(t, out, "wildfire_etl_last_success_timestamp_seconds 1.7225352e+09")
}
