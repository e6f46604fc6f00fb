package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoMonthSeries builds 62 days (July and August 2023) with one missing
// precipitation sample on 2023-07-06.
func twoMonthSeries() DailySeries {
	start := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	var d DailySeries
	for i := range 62 {
		d.Time = append(d.Time, start.AddDate(0, 0, i).Format(time.DateOnly))
		d.TemperatureMax = append(d.TemperatureMax, ptr(30))
		d.TemperatureMin = append(d.TemperatureMin, ptr(18))
		d.TemperatureMean = append(d.TemperatureMean, ptr(24))
		if i == 5 {
			d.PrecipitationSum = append(d.PrecipitationSum, nil)
		} else {
			d.PrecipitationSum = append(d.PrecipitationSum, ptr(2))
		}
		d.WindSpeedMax = append(d.WindSpeedMax, ptr(float64(10+i%5)))
		code := 1.0
		if i%3 == 0 {
			code = 61
		}
		d.WeatherCode = append(d.WeatherCode, ptr(code))
	}
	return d
}

func TestCalculateMonthlyStatistics(t *testing.T) {
	stats := CalculateMonthlyStatistics(twoMonthSeries())
	require.Len(t, stats, 2)

	jul, ok := stats["2023-07"]
	require.True(t, ok)
	aug, ok := stats["2023-08"]
	require.True(t, ok)

	assert.Equal(t, 31, jul.DaysCount)
	assert.Equal(t, 31, aug.DaysCount)

	require.NotNil(t, jul.PrecipitationSum)
	assert.Equal(t, 60.0, *jul.PrecipitationSum)
	require.NotNil(t, jul.PrecipitationMean)
	assert.Equal(t, 2.0, *jul.PrecipitationMean, "missing day excluded from denominator")
	assert.Equal(t, 62.0, *aug.PrecipitationSum)

	assert.Equal(t, 30.0, *jul.TempMax)
	assert.Equal(t, 18.0, *jul.TempMin)
	assert.Equal(t, 24.0, *jul.TempMean)
	assert.Equal(t, 14.0, *jul.WindSpeedMax)

	require.NotNil(t, jul.MostCommonWeatherCode)
	assert.Equal(t, 1, *jul.MostCommonWeatherCode)
}

func TestCalculateMonthlyStatistics_AllMissingMonth(t *testing.T) {
	d := DailySeries{
		Time:             []string{"2021-02-01", "2021-02-02"},
		TemperatureMax:   []*float64{nil, nil},
		PrecipitationSum: []*float64{nil, nil},
	}

	stats := CalculateMonthlyStatistics(d)
	feb := stats["2021-02"]

	assert.Equal(t, 2, feb.DaysCount)
	assert.Nil(t, feb.TempMax)
	assert.Nil(t, feb.TempMin)
	assert.Nil(t, feb.PrecipitationSum)
	assert.Nil(t, feb.PrecipitationMean)
	assert.Nil(t, feb.WindSpeedMax)
	assert.Nil(t, feb.MostCommonWeatherCode)

	raw, err := json.Marshal(feb)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tempMax":null`)
}

func TestCalculateMonthlyStatistics_SkipsShortDates(t *testing.T) {
	d := DailySeries{
		Time:           []string{"2022-05", "bad", "2022-05-02"},
		TemperatureMax: []*float64{ptr(1), ptr(100), ptr(3)},
	}

	stats := CalculateMonthlyStatistics(d)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats["2022-05"].DaysCount)
	assert.Equal(t, 2.0, *stats["2022-05"].TempMax)
}

func TestNewPeriod(t *testing.T) {
	p := NewPeriod(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, Period{Start: "2020-01-01", End: "2024-12-31", Years: 5}, p)
}

func TestNewProvinceClimatology(t *testing.T) {
	p := Province{ID: 6, Name: "Ankara", Region: "İç Anadolu", Latitude: 39.93, Longitude: 32.86}
	period := Period{Start: "2023-07-01", End: "2023-08-31", Years: 1}

	t.Run("response coordinates win", func(t *testing.T) {
		rec := HistoricalRecord{Coordinates: &Coordinates{Latitude: 39.9, Longitude: 32.9}, Daily: twoMonthSeries()}
		pc := NewProvinceClimatology(p, rec, period)

		assert.Equal(t, "Ankara", pc.Province)
		assert.Equal(t, 6, pc.ProvinceID)
		assert.Equal(t, "İç Anadolu", pc.Region)
		assert.Equal(t, Coordinates{Latitude: 39.9, Longitude: 32.9}, pc.Coordinates)
		assert.Equal(t, 62, pc.RawDataPoints)
		assert.Len(t, pc.MonthlyStatistics, 2)
		assert.Equal(t, period, pc.Period)
	})

	t.Run("falls back to configured centroid", func(t *testing.T) {
		pc := NewProvinceClimatology(p, HistoricalRecord{}, period)
		assert.Equal(t, p.Coordinates(), pc.Coordinates)
		assert.Equal(t, 0, pc.RawDataPoints)
		assert.Empty(t, pc.MonthlyStatistics)
	})
}

func TestNewClimatologyOutput(t *testing.T) {
	period := Period{Start: "2020-01-01", End: "2024-12-31", Years: 5}
	generated := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	provinces := map[string]ProvinceClimatology{
		"Adana": {Province: "Adana", RawDataPoints: 1827},
		"Ağrı":  {Province: "Ağrı", RawDataPoints: 1827},
	}

	out := NewClimatologyOutput(provinces, period, generated)

	assert.Equal(t, "Historical weather climatology for Turkish provinces (2020-2024)", out.Metadata.Description)
	assert.Equal(t, ClimatologySource, out.Metadata.Source)
	assert.Equal(t, ClimatologySourceURL, out.Metadata.SourceURL)
	assert.Equal(t, "2025-01-02T03:04:05.006Z", out.Metadata.GeneratedAt)
	assert.Equal(t, 2, out.Metadata.ProvincesCount)
	assert.Equal(t, 3654, out.Metadata.TotalDataPoints)
	assert.Equal(t, period, out.Metadata.Period)

	empty := NewClimatologyOutput(nil, period, generated)
	assert.NotNil(t, empty.Provinces)
	assert.Equal(t, 0, empty.Metadata.TotalDataPoints)
}
