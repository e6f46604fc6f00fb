package config

import (
	"github.com/couchcryptid/province-weather-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
)

// RunnerOptions returns the batch loop settings shared by both jobs.
func (c *Config) RunnerOptions() pipeline.RunnerOptions {
	return pipeline.RunnerOptions{
		BatchSize:  c.BatchSize,
		BatchDelay: c.BatchDelay,
		Retry: pipeline.RetryPolicy{
			MaxAttempts: c.RetryMaxAttempts,
			BaseDelay:   c.RetryBaseDelay,
		},
	}
}

// OpenMeteoOptions returns the upstream client settings.
func (c *Config) OpenMeteoOptions() openmeteo.Options {
	return openmeteo.Options{
		ForecastURL:         c.ForecastAPIURL,
		ArchiveURL:          c.ArchiveAPIURL,
		Timezone:            c.Timezone,
		ForecastDays:        c.ForecastDays,
		ArchiveStart:        c.ClimatologyStart,
		ArchiveEnd:          c.ClimatologyEnd,
		CoordinateTolerance: c.CoordinateTolerance,
		HTTPTimeout:         c.HTTPTimeout,
		BreakerTimeout:      c.BreakerTimeout,
	}
}

// ForecastConfig describes the forecast snapshot.
func (c *Config) ForecastConfig() pipeline.ForecastConfig {
	return pipeline.ForecastConfig{
		OutputPath:   c.WeatherOutputFile,
		Timezone:     c.Timezone,
		ForecastDays: c.ForecastDays,
	}
}

// ClimatologyConfig describes the climatology snapshot.
func (c *Config) ClimatologyConfig() pipeline.ClimatologyConfig {
	return pipeline.ClimatologyConfig{
		OutputPath: c.ClimatologyOutputFile,
		Start:      c.ClimatologyStart,
		End:        c.ClimatologyEnd,
	}
}
