package domain

import (
	"encoding/json"
	"math"
	"time"
)

// ForecastRecord is one normalised forecast location: the upstream object
// passed through untouched, plus the grid point it reports.
type ForecastRecord struct {
	Coordinates Coordinates
	Payload     json.RawMessage
}

// ForecastMetadata describes a current/forecast snapshot.
type ForecastMetadata struct {
	LastUpdate      string `json:"lastUpdate"`
	UpdateTimestamp int64  `json:"updateTimestamp"`
	ProvincesCount  int    `json:"provincesCount"`
	ExpectedCount   int    `json:"expectedCount"`
	Source          string `json:"source"`
	Attribution     string `json:"attribution"`
	Timezone        string `json:"timezone"`
	ForecastDays    int    `json:"forecastDays"`
}

// ForecastOutput is the persisted current/forecast snapshot, keyed by exact
// province name.
type ForecastOutput struct {
	Metadata  ForecastMetadata           `json:"metadata"`
	Provinces map[string]json.RawMessage `json:"provinces"`
}

const (
	ForecastSource      = "Open-Meteo API"
	ForecastAttribution = "Weather data by Open-Meteo.com (CC BY 4.0)"
)

// NewForecastOutput assembles the snapshot. ProvincesCount is the number of
// merged provinces and ExpectedCount the size of the input list.
func NewForecastOutput(provinces map[string]json.RawMessage, expected int, timezone string, days int, now time.Time) ForecastOutput {
	if provinces == nil {
		provinces = map[string]json.RawMessage{}
	}
	return ForecastOutput{
		Metadata: ForecastMetadata{
			LastUpdate:      FormatTimestamp(now),
			UpdateTimestamp: now.UnixMilli(),
			ProvincesCount:  len(provinces),
			ExpectedCount:   expected,
			Source:          ForecastSource,
			Attribution:     ForecastAttribution,
			Timezone:        timezone,
			ForecastDays:    days,
		},
		Provinces: provinces,
	}
}

// Complete reports whether every expected province was fetched.
func (o ForecastOutput) Complete() bool {
	return o.Metadata.ProvincesCount >= o.Metadata.ExpectedCount
}

// FormatTimestamp renders t as UTC ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// weatherConditions maps WMO weather interpretation codes to descriptions.
var weatherConditions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with light hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherCondition describes a WMO weather code. Unknown codes fall back to
// the clear-sky description.
func WeatherCondition(code int) string {
	if d, ok := weatherConditions[code]; ok {
		return d
	}
	return weatherConditions[0]
}

var compass = [16]string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}

// WindDirection names the 16-point compass sector of a bearing in degrees.
func WindDirection(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compass[idx]
}
