package domain

import (
	"fmt"
	"math"
	"time"
)

// DailySeries is one location's daily archive columns. Series are aligned
// with Time by index; a series shorter than Time reads as missing values.
type DailySeries struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	TemperatureMean  []*float64 `json:"temperature_2m_mean"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WindSpeedMax     []*float64 `json:"wind_speed_10m_max"`
	WeatherCode      []*float64 `json:"weather_code"`
}

// HistoricalRecord is one normalised archive location. Coordinates is nil
// when the response did not report the grid point it resolved to.
type HistoricalRecord struct {
	Coordinates *Coordinates
	Timezone    string
	Daily       DailySeries
}

// MonthlyStatistic summarises one calendar month of a daily series. Every
// derived value is nil when the month has no valid sample for it.
type MonthlyStatistic struct {
	TempMax               *float64 `json:"tempMax"`
	TempMin               *float64 `json:"tempMin"`
	TempMean              *float64 `json:"tempMean"`
	PrecipitationSum      *float64 `json:"precipitationSum"`
	PrecipitationMean     *float64 `json:"precipitationMean"`
	WindSpeedMax          *float64 `json:"windSpeedMax"`
	WindSpeedMean         *float64 `json:"windSpeedMean"`
	DaysCount             int      `json:"daysCount"`
	MostCommonWeatherCode *int     `json:"mostCommonWeatherCode"`
}

type monthBucket struct {
	tempMax, tempMin, tempMean []*float64
	precipitation, windSpeed   []*float64
	weatherCodes               []*float64
	days                       int
}

// CalculateMonthlyStatistics groups a daily series by the YYYY-MM prefix of
// each date and rolls every month up. DaysCount counts every entry of the
// month, including days whose samples are missing. Dates too short to carry
// a month prefix are skipped.
func CalculateMonthlyStatistics(d DailySeries) map[string]MonthlyStatistic {
	buckets := make(map[string]*monthBucket)
	for i, date := range d.Time {
		if len(date) < 7 {
			continue
		}
		month := date[:7]
		b, ok := buckets[month]
		if !ok {
			b = &monthBucket{}
			buckets[month] = b
		}
		b.days++
		b.tempMax = append(b.tempMax, at(d.TemperatureMax, i))
		b.tempMin = append(b.tempMin, at(d.TemperatureMin, i))
		b.tempMean = append(b.tempMean, at(d.TemperatureMean, i))
		b.precipitation = append(b.precipitation, at(d.PrecipitationSum, i))
		b.windSpeed = append(b.windSpeed, at(d.WindSpeedMax, i))
		b.weatherCodes = append(b.weatherCodes, at(d.WeatherCode, i))
	}

	out := make(map[string]MonthlyStatistic, len(buckets))
	for month, b := range buckets {
		out[month] = MonthlyStatistic{
			TempMax:               Average(b.tempMax),
			TempMin:               Average(b.tempMin),
			TempMean:              Average(b.tempMean),
			PrecipitationSum:      Sum(b.precipitation),
			PrecipitationMean:     Average(b.precipitation),
			WindSpeedMax:          Max(b.windSpeed),
			WindSpeedMean:         Average(b.windSpeed),
			DaysCount:             b.days,
			MostCommonWeatherCode: toCode(Mode(b.weatherCodes)),
		}
	}
	return out
}

func at(series []*float64, i int) *float64 {
	if i >= len(series) {
		return nil
	}
	return series[i]
}

func toCode(v *float64) *int {
	if v == nil {
		return nil
	}
	code := int(math.Round(*v))
	return &code
}

// Period is the archive window of a climatology snapshot.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Years int    `json:"years"`
}

// NewPeriod describes the inclusive window [start, end].
func NewPeriod(start, end time.Time) Period {
	return Period{
		Start: start.Format(time.DateOnly),
		End:   end.Format(time.DateOnly),
		Years: end.Year() - start.Year() + 1,
	}
}

// ProvinceClimatology is one province entry of the climatology snapshot.
type ProvinceClimatology struct {
	Province          string                      `json:"province"`
	ProvinceID        int                         `json:"provinceId"`
	Region            string                      `json:"region"`
	Coordinates       Coordinates                 `json:"coordinates"`
	Period            Period                      `json:"period"`
	MonthlyStatistics map[string]MonthlyStatistic `json:"monthlyStatistics"`
	RawDataPoints     int                         `json:"rawDataPoints"`
}

// NewProvinceClimatology rolls a fetched archive record up for p. The
// coordinates reported by the archive win over the configured centroid.
func NewProvinceClimatology(p Province, rec HistoricalRecord, period Period) ProvinceClimatology {
	coords := p.Coordinates()
	if rec.Coordinates != nil {
		coords = *rec.Coordinates
	}
	return ProvinceClimatology{
		Province:          p.Name,
		ProvinceID:        p.ID,
		Region:            p.Region,
		Coordinates:       coords,
		Period:            period,
		MonthlyStatistics: CalculateMonthlyStatistics(rec.Daily),
		RawDataPoints:     len(rec.Daily.Time),
	}
}

// ClimatologyMetadata describes a climatology snapshot.
type ClimatologyMetadata struct {
	Description     string `json:"description"`
	Source          string `json:"source"`
	SourceURL       string `json:"sourceUrl"`
	Period          Period `json:"period"`
	GeneratedAt     string `json:"generatedAt"`
	ProvincesCount  int    `json:"provincesCount"`
	TotalDataPoints int    `json:"totalDataPoints"`
}

// ClimatologyOutput is the persisted climatology snapshot.
type ClimatologyOutput struct {
	Metadata  ClimatologyMetadata            `json:"metadata"`
	Provinces map[string]ProvinceClimatology `json:"provinces"`
}

const (
	ClimatologySource    = "Open-Meteo Historical Weather API"
	ClimatologySourceURL = "https://open-meteo.com/en/docs/historical-weather-api"
)

// NewClimatologyOutput assembles the snapshot and its metadata counts.
func NewClimatologyOutput(provinces map[string]ProvinceClimatology, period Period, generatedAt time.Time) ClimatologyOutput {
	if provinces == nil {
		provinces = map[string]ProvinceClimatology{}
	}
	total := 0
	for _, p := range provinces {
		total += p.RawDataPoints
	}
	return ClimatologyOutput{
		Metadata: ClimatologyMetadata{
			Description:     climatologyDescription(period),
			Source:          ClimatologySource,
			SourceURL:       ClimatologySourceURL,
			Period:          period,
			GeneratedAt:     FormatTimestamp(generatedAt),
			ProvincesCount:  len(provinces),
			TotalDataPoints: total,
		},
		Provinces: provinces,
	}
}

func climatologyDescription(p Period) string {
	start, end := p.Start, p.End
	if len(start) >= 4 {
		start = start[:4]
	}
	if len(end) >= 4 {
		end = end[:4]
	}
	return fmt.Sprintf("Historical weather climatology for Turkish provinces (%s-%s)", start, end)
}
