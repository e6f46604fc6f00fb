package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
)

var (
	currentFields = []string{
		"temperature_2m",
		"relative_humidity_2m",
		"apparent_temperature",
		"is_day",
		"precipitation",
		"weather_code",
		"cloud_cover",
		"pressure_msl",
		"wind_speed_10m",
		"wind_direction_10m",
	}
	hourlyFields = []string{
		"temperature_2m",
		"precipitation_probability",
		"precipitation",
		"weather_code",
	}
	dailyForecastFields = []string{
		"weather_code",
		"temperature_2m_max",
		"temperature_2m_min",
		"apparent_temperature_max",
		"apparent_temperature_min",
		"sunrise",
		"sunset",
		"uv_index_max",
		"precipitation_sum",
		"precipitation_probability_max",
		"wind_speed_10m_max",
		"wind_gusts_10m_max",
		"wind_direction_10m_dominant",
	}
)

// FetchForecast requests current conditions, hourly and daily forecasts for
// every province in batch with one call. Records come back in batch order
// with the upstream object passed through as the payload.
func (c *Client) FetchForecast(ctx context.Context, batch []domain.Province) ([]domain.ForecastRecord, error) {
	params := coordinateParams(batch)
	params.Set("current", strings.Join(currentFields, ","))
	params.Set("hourly", strings.Join(hourlyFields, ","))
	params.Set("daily", strings.Join(dailyForecastFields, ","))
	params.Set("timezone", c.opts.Timezone)
	params.Set("forecast_days", strconv.Itoa(c.opts.ForecastDays))

	body, err := c.get(ctx, c.forecastCB, c.opts.ForecastURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	locations, err := splitLocations(body)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	records := make([]domain.ForecastRecord, len(locations))
	coords := make([]domain.Coordinates, len(locations))
	for i, raw := range locations {
		var pos domain.Coordinates
		if err := json.Unmarshal(raw, &pos); err != nil {
			return nil, fmt.Errorf("fetch forecast: decode location %d: %w", i, err)
		}
		coords[i] = pos
		records[i] = domain.ForecastRecord{Coordinates: pos, Payload: raw}
	}

	if err := checkPositions(batch, coords, c.opts.CoordinateTolerance); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	return records, nil
}
