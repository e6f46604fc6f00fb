package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
)

var dailyArchiveFields = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"precipitation_sum",
	"wind_speed_10m_max",
	"weather_code",
}

// FetchArchive requests the configured daily archive window for every
// province in batch with one call and normalises the reply to one record per
// province, in batch order.
//
// Three reply shapes are accepted: an array of location objects, a single
// location object (batch of one), and a columnar document whose per-field
// arrays are indexed [location][day] beside a shared top-level time axis.
func (c *Client) FetchArchive(ctx context.Context, batch []domain.Province) ([]domain.HistoricalRecord, error) {
	params := coordinateParams(batch)
	params.Set("start_date", c.opts.ArchiveStart.Format(time.DateOnly))
	params.Set("end_date", c.opts.ArchiveEnd.Format(time.DateOnly))
	params.Set("daily", strings.Join(dailyArchiveFields, ","))
	params.Set("timezone", c.opts.Timezone)

	body, err := c.get(ctx, c.archiveCB, c.opts.ArchiveURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}

	records, err := c.normaliseArchive(body, len(batch))
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}

	if err := c.checkArchivePositions(batch, records); err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	return records, nil
}

// archiveLocation is one element of the per-location reply shapes.
type archiveLocation struct {
	Latitude  *float64           `json:"latitude"`
	Longitude *float64           `json:"longitude"`
	Timezone  string             `json:"timezone"`
	Daily     domain.DailySeries `json:"daily"`
}

// columnarArchive is the location-major reply shape.
type columnarArchive struct {
	Latitude         []float64    `json:"latitude"`
	Longitude        []float64    `json:"longitude"`
	Timezone         string       `json:"timezone"`
	Time             []string     `json:"time"`
	TemperatureMax   [][]*float64 `json:"temperature_2m_max"`
	TemperatureMin   [][]*float64 `json:"temperature_2m_min"`
	TemperatureMean  [][]*float64 `json:"temperature_2m_mean"`
	PrecipitationSum [][]*float64 `json:"precipitation_sum"`
	WindSpeedMax     [][]*float64 `json:"wind_speed_10m_max"`
	WeatherCode      [][]*float64 `json:"weather_code"`
}

func (c *Client) normaliseArchive(body []byte, n int) ([]domain.HistoricalRecord, error) {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if !strings.HasPrefix(trimmed, "[") {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode archive: %w", err)
		}
		if _, perLocation := fields["daily"]; !perLocation {
			return c.fromColumnar(body, n)
		}
	}

	locations, err := splitLocations(body)
	if err != nil {
		return nil, err
	}
	records := make([]domain.HistoricalRecord, len(locations))
	for i, raw := range locations {
		var loc archiveLocation
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("decode archive location %d: %w", i, err)
		}
		records[i] = domain.HistoricalRecord{
			Coordinates: coordinatesOf(loc.Latitude, loc.Longitude),
			Timezone:    c.timezoneOr(loc.Timezone),
			Daily:       loc.Daily,
		}
	}
	return records, nil
}

func (c *Client) fromColumnar(body []byte, n int) ([]domain.HistoricalRecord, error) {
	var doc columnarArchive
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode columnar archive: %w", err)
	}

	for name, field := range map[string][][]*float64{
		"temperature_2m_max":  doc.TemperatureMax,
		"temperature_2m_min":  doc.TemperatureMin,
		"temperature_2m_mean": doc.TemperatureMean,
		"precipitation_sum":   doc.PrecipitationSum,
		"wind_speed_10m_max":  doc.WindSpeedMax,
		"weather_code":        doc.WeatherCode,
	} {
		if field != nil && len(field) != n {
			return nil, fmt.Errorf("%w: %s has %d locations, requested %d", ErrLocationMismatch, name, len(field), n)
		}
	}
	if doc.Latitude != nil && len(doc.Latitude) != n {
		return nil, fmt.Errorf("%w: requested %d locations, got %d", ErrLocationMismatch, n, len(doc.Latitude))
	}

	records := make([]domain.HistoricalRecord, n)
	for i := range records {
		var coords *domain.Coordinates
		if i < len(doc.Latitude) && i < len(doc.Longitude) {
			coords = &domain.Coordinates{Latitude: doc.Latitude[i], Longitude: doc.Longitude[i]}
		}
		records[i] = domain.HistoricalRecord{
			Coordinates: coords,
			Timezone:    c.timezoneOr(doc.Timezone),
			Daily: domain.DailySeries{
				Time:             doc.Time,
				TemperatureMax:   column(doc.TemperatureMax, i),
				TemperatureMin:   column(doc.TemperatureMin, i),
				TemperatureMean:  column(doc.TemperatureMean, i),
				PrecipitationSum: column(doc.PrecipitationSum, i),
				WindSpeedMax:     column(doc.WindSpeedMax, i),
				WeatherCode:      column(doc.WeatherCode, i),
			},
		}
	}
	return records, nil
}

// checkArchivePositions runs the positional check on the records that report
// coordinates; the count must always match.
func (c *Client) checkArchivePositions(batch []domain.Province, records []domain.HistoricalRecord) error {
	if len(records) != len(batch) {
		return fmt.Errorf("%w: requested %d locations, got %d", ErrLocationMismatch, len(batch), len(records))
	}
	coords := make([]domain.Coordinates, len(records))
	for i, rec := range records {
		if rec.Coordinates == nil {
			coords[i] = batch[i].Coordinates()
			continue
		}
		coords[i] = *rec.Coordinates
	}
	return checkPositions(batch, coords, c.opts.CoordinateTolerance)
}

func (c *Client) timezoneOr(tz string) string {
	if tz == "" {
		return c.opts.Timezone
	}
	return tz
}

func column(field [][]*float64, i int) []*float64 {
	if i >= len(field) {
		return nil
	}
	return field[i]
}

func coordinatesOf(lat, lon *float64) *domain.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.Coordinates{Latitude: *lat, Longitude: *lon}
}
