package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "global", cfg.Region)
	assert.True(t, cfg.IncludeWind)
	assert.Equal(t, "data/wildfires.geojson", cfg.OutputPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultModisURL, cfg.ModisURL)
	assert.Equal(t, DefaultViirsURL, cfg.ViirsURL)
	assert.Equal(t, 30*time.Second, cfg.FirmsTimeout)
	assert.Equal(t, int64(64<<20), cfg.FirmsMaxBodyBytes)
	assert.Equal(t, 2, cfg.FirmsRetries)
	assert.Equal(t, DefaultWindURL, cfg.WindURL)
	assert.Equal(t, 5*time.Second, cfg.WindTimeout)
	assert.Equal(t, 4, cfg.WindConcurrency)
	assert.Equal(t, 10.0, cfg.WindRatePerSec)
	assert.Equal(t, 1000, cfg.WindCacheSize)
	assert.Equal(t, 2, cfg.WindCachePrecision)
	assert.Equal(t, 20.0, cfg.WindFallbackSpeedKPH)
	assert.Equal(t, 0.0, cfg.WindFallbackDirection)
	assert.Equal(t, 0.01, cfg.DedupeThresholdDeg)
	assert.Equal(t, 15.0, cfg.SpreadMaxKM)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "wildfire-hotspots", cfg.KafkaTopic)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("REGION", "california")
	t.Setenv("INCLUDE_WIND", "false")
	t.Setenv("OUTPUT_PATH", "/tmp/out.geojson")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("RUN_TIMEOUT", "2m")
	t.Setenv("FIRMS_RETRIES", "0")
	t.Setenv("FIRMS_MODIS_URL", "http://modis.test/feed.csv")
	t.Setenv("FIRMS_VIIRS_URL", "http://viirs.test/feed.csv")
	t.Setenv("FIRMS_TIMEOUT", "45s")
	t.Setenv("FIRMS_MAX_BODY_BYTES", "1024")
	t.Setenv("WIND_API_URL", "http://wind.test/v1/forecast")
	t.Setenv("WIND_TIMEOUT", "2s")
	t.Setenv("WIND_CONCURRENCY", "8")
	t.Setenv("WIND_RATE_PER_SEC", "2.5")
	t.Setenv("WIND_CACHE_SIZE", "50")
	t.Setenv("WIND_CACHE_PRECISION", "1")
	t.Setenv("WIND_FALLBACK_SPEED_KPH", "15")
	t.Setenv("WIND_FALLBACK_DIRECTION_DEG", "270")
	t.Setenv("DEDUPE_THRESHOLD_DEG", "0.02")
	t.Setenv("SPREAD_MAX_KM", "12")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "fires")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/wildfire.prom")
	t.Setenv("METRICS_ADDR", ":9102")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "california", cfg.Region)
	assert.False(t, cfg.IncludeWind)
	assert.Equal(t, "/tmp/out.geojson", cfg.OutputPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0, cfg.FirmsRetries)
	assert.Equal(t, "http://modis.test/feed.csv", cfg.ModisURL)
	assert.Equal(t, "http://viirs.test/feed.csv", cfg.ViirsURL)
	assert.Equal(t, 45*time.Second, cfg.FirmsTimeout)
	assert.Equal(t, int64(1024), cfg.FirmsMaxBodyBytes)
	assert.Equal(t, "http://wind.test/v1/forecast", cfg.WindURL)
	assert.Equal(t, 2*time.Second, cfg.WindTimeout)
	assert.Equal(t, 8, cfg.WindConcurrency)
	assert.Equal(t, 2.5, cfg.WindRatePerSec)
	assert.Equal(t, 50, cfg.WindCacheSize)
	assert.Equal(t, 1, cfg.WindCachePrecision)
	assert.Equal(t, 15.0, cfg.WindFallbackSpeedKPH)
	assert.Equal(t, 270.0, cfg.WindFallbackDirection)
	assert.Equal(t, 0.02, cfg.DedupeThresholdDeg)
	assert.Equal(t, 12.0, cfg.SpreadMaxKM)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "fires", cfg.KafkaTopic)
	assert.Equal(t, "/var/lib/node_exporter/wildfire.prom", cfg.MetricsTextfile)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"RUN_TIMEOUT", "soon"},
		{"FIRMS_RETRIES", "-1"},
		{"FIRMS_TIMEOUT", "bad"},
		{"FIRMS_TIMEOUT", "-1s"},
		{"WIND_TIMEOUT", "0s"},
		{"FIRMS_MAX_BODY_BYTES", "0"},
		{"WIND_CONCURRENCY", "-2"},
		{"WIND_CACHE_SIZE", "many"},
		{"WIND_CACHE_PRECISION", "0"},
		{"WIND_RATE_PER_SEC", "0"},
		{"WIND_RATE_PER_SEC", "fast"},
		{"WIND_FALLBACK_SPEED_KPH", "-1"},
		{"WIND_FALLBACK_DIRECTION_DEG", "361"},
		{"DEDUPE_THRESHOLD_DEG", "0"},
		{"SPREAD_MAX_KM", "0.5"},
		{"INCLUDE_WIND", "maybe"},
		{"SPREAD_MAX_KM", "NaN"},
		{"SPREAD_MAX_KM", "+Inf"},
		{"WIND_FALLBACK_SPEED_KPH", "NaN"},
		{"WIND_FALLBACK_DIRECTION_DEG", "nan"},
		{"DEDUPE_THRESHOLD_DEG", "NaN"},
		{"DEDUPE_THRESHOLD_DEG", "Inf"},
		{"WIND_RATE_PER_SEC", "Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaTopicRequiredWithBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_TOPIC", "")

	// An empty KAFKA_TOPIC falls back to the default topic.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wildfire-hotspots", cfg.KafkaTopic)
}
