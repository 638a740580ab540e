package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Default FIRMS 24-hour global feeds. Regions are filtered locally.
const (
	DefaultModisURL = "https://firms.modaps.eosdis.nasa.gov/data/active_fire/modis-c6.1/csv/MODIS_C6_1_Global_24h.csv"
	DefaultViirsURL = "https://firms.modaps.eosdis.nasa.gov/data/active_fire/suomi-npp-viirs-c2/csv/SUOMI_VIIRS_C2_Global_24h.csv"
	DefaultWindURL  = "https://api.open-meteo.com/v1/forecast"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	Region      string
	IncludeWind bool
	OutputPath  string
	LogLevel    string
	LogFormat   string
	// RunTimeout bounds the whole run.
	RunTimeout      time.Duration
	ShutdownTimeout time.Duration

	// FIRMS feed retrieval.
	ModisURL          string
	ViirsURL          string
	FirmsTimeout      time.Duration
	FirmsMaxBodyBytes int64
	FirmsRetries      int

	// Open-Meteo wind enrichment.
	WindURL               string
	WindTimeout           time.Duration
	WindConcurrency       int
	WindRatePerSec        float64
	WindCacheSize         int
	WindCachePrecision    int
	WindFallbackSpeedKPH  float64
	WindFallbackDirection float64

	// Model parameters.
	DedupeThresholdDeg float64
	SpreadMaxKM        float64

	// Optional sinks.
	KafkaBrokers    []string
	KafkaTopic      string
	MetricsTextfile string
	MetricsAddr     string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	runTimeout, err := parsePositiveDuration("RUN_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}

	firmsTimeout, err := parsePositiveDuration("FIRMS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	windTimeout, err := parsePositiveDuration("WIND_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	maxBody, err := parsePositiveInt("FIRMS_MAX_BODY_BYTES", 64<<20)
	if err != nil {
		return nil, err
	}
	firmsRetries, err := parseNonNegativeInt("FIRMS_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	windConcurrency, err := parsePositiveInt("WIND_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	windCacheSize, err := parsePositiveInt("WIND_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	windCachePrecision, err := parsePositiveInt("WIND_CACHE_PRECISION", 2)
	if err != nil {
		return nil, err
	}
	windRate, err := parseFloat("WIND_RATE_PER_SEC", 10)
	if err != nil {
		return nil, err
	}
	fallbackSpeed, err := parseFloat("WIND_FALLBACK_SPEED_KPH", 20)
	if err != nil {
		return nil, err
	}
	fallbackDir, err := parseFloat("WIND_FALLBACK_DIRECTION_DEG", 0)
	if err != nil {
		return nil, err
	}
	threshold, err := parseFloat("DEDUPE_THRESHOLD_DEG", 0.01)
	if err != nil {
		return nil, err
	}
	spreadMax, err := parseFloat("SPREAD_MAX_KM", 15)
	if err != nil {
		return nil, err
	}
	includeWind, err := parseBool("INCLUDE_WIND", true)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Region:          sharedcfg.EnvOrDefault("REGION", "global"),
		IncludeWind:     includeWind,
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/wildfires.geojson"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		RunTimeout:      runTimeout,
		ShutdownTimeout: shutdownTimeout,

		ModisURL:          sharedcfg.EnvOrDefault("FIRMS_MODIS_URL", DefaultModisURL),
		ViirsURL:          sharedcfg.EnvOrDefault("FIRMS_VIIRS_URL", DefaultViirsURL),
		FirmsTimeout:      firmsTimeout,
		FirmsMaxBodyBytes: int64(maxBody),
		FirmsRetries:      firmsRetries,

		WindURL:               sharedcfg.EnvOrDefault("WIND_API_URL", DefaultWindURL),
		WindTimeout:           windTimeout,
		WindConcurrency:       windConcurrency,
		WindRatePerSec:        windRate,
		WindCacheSize:         windCacheSize,
		WindCachePrecision:    windCachePrecision,
		WindFallbackSpeedKPH:  fallbackSpeed,
		WindFallbackDirection: fallbackDir,

		DedupeThresholdDeg: threshold,
		SpreadMaxKM:        spreadMax,

		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "wildfire-hotspots"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}

	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.WindRatePerSec <= 0 {
		return nil, errors.New("WIND_RATE_PER_SEC must be positive")
	}
	if cfg.WindFallbackSpeedKPH < 0 {
		return nil, errors.New("WIND_FALLBACK_SPEED_KPH must not be negative")
	}
	if cfg.WindFallbackDirection < 0 || cfg.WindFallbackDirection > 360 {
		return nil, errors.New("WIND_FALLBACK_DIRECTION_DEG must be within 0-360")
	}
	if cfg.DedupeThresholdDeg <= 0 {
		return nil, errors.New("DEDUPE_THRESHOLD_DEG must be positive")
	}
	if cfg.SpreadMaxKM < 1 {
		return nil, errors.New("SPREAD_MAX_KM must be at least 1")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
