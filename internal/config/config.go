package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all job and daemon settings, populated from environment variables.
type Config struct {
	ProvincesFile         string
	WeatherOutputFile     string
	ClimatologyOutputFile string

	ForecastAPIURL string
	ArchiveAPIURL  string

	BatchSize        int
	BatchDelay       time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	HTTPTimeout      time.Duration
	BreakerTimeout   time.Duration

	ForecastDays        int
	Timezone            string
	ClimatologyStart    time.Time
	ClimatologyEnd      time.Time
	CoordinateTolerance float64

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	WeatherSchedule     string
	ClimatologySchedule string
	// RunOnStart triggers the forecast job as soon as the daemon starts.
	RunOnStart          bool

	// Snapshot event sink.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := parseIntRange("BATCH_SIZE", 10, 1, 100)
	if err != nil {
		return nil, err
	}
	retryAttempts, err := parseIntRange("RETRY_MAX_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	forecastDays, err := parseIntRange("FORECAST_DAYS", 7, 1, 16)
	if err != nil {
		return nil, err
	}

	batchDelay, err := parseDuration("BATCH_DELAY", "150ms", true)
	if err != nil {
		return nil, err
	}
	retryBaseDelay, err := parseDuration("RETRY_BASE_DELAY", "2s", true)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}
	breakerTimeout, err := parseDuration("BREAKER_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}

	start, err := parseDate("CLIMATOLOGY_START", "2020-01-01")
	if err != nil {
		return nil, err
	}
	end, err := parseDate("CLIMATOLOGY_END", "2024-12-31")
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.New("CLIMATOLOGY_END must not be before CLIMATOLOGY_START")
	}

	tolerance, err := parseTolerance()
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		ProvincesFile:         sharedcfg.EnvOrDefault("PROVINCES_FILE", "data/provinces-coordinates.json"),
		WeatherOutputFile:     sharedcfg.EnvOrDefault("WEATHER_OUTPUT_FILE", "data/weather-current.json"),
		ClimatologyOutputFile: sharedcfg.EnvOrDefault("CLIMATOLOGY_OUTPUT_FILE", "data/weather-climatology-2020-2024.json"),

		ForecastAPIURL: sharedcfg.EnvOrDefault("FORECAST_API_URL", "https://api.open-meteo.com/v1/forecast"),
		ArchiveAPIURL:  sharedcfg.EnvOrDefault("ARCHIVE_API_URL", "https://archive-api.open-meteo.com/v1/archive"),

		BatchSize:        batchSize,
		BatchDelay:       batchDelay,
		RetryMaxAttempts: retryAttempts,
		RetryBaseDelay:   retryBaseDelay,
		HTTPTimeout:      httpTimeout,
		BreakerTimeout:   breakerTimeout,

		ForecastDays:        forecastDays,
		Timezone:            sharedcfg.EnvOrDefault("WEATHER_TIMEZONE", "Europe/Istanbul"),
		ClimatologyStart:    start,
		ClimatologyEnd:      end,
		CoordinateTolerance: tolerance,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherSchedule:     sharedcfg.EnvOrDefault("WEATHER_SCHEDULE", "0 5 * * *"),
		ClimatologySchedule: sharedcfg.EnvOrDefault("CLIMATOLOGY_SCHEDULE", "0 4 1 * *"),
		RunOnStart:          sharedcfg.EnvOrDefault("RUN_ON_START", "true") == "true",

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "province-weather-snapshots"),
		KafkaEnabled: kafkaEnabled,
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEZONE: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func parseIntRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: must be an integer in [%d, %d]", key, s, lo, hi)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseDate(key, def string) (time.Time, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, s)
	}
	return t, nil
}

func parseTolerance() (float64, error) {
	s := sharedcfg.EnvOrDefault("COORDINATE_TOLERANCE", "0.5")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid COORDINATE_TOLERANCE %q", s)
	}
	return v, nil
}
