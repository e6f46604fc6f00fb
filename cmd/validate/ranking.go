package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
)

// quantileClasses is the number of classes used for temperature and
// precipitation.
const quantileClasses = 5

// climateWeights combine the heat and dryness classes into the climate class.
var climateWeights = map[string]float64{"heat": 0.5, "dryness": 0.5}

type rankingRow struct {
	Province     string
	MeanTemp     float64
	TempRank     int
	TempPct      int
	AnnualPrecip float64
	PrecipClass  int
	Dominant     string
	Wind         string
	// ClimateClass is the weighted mean of the heat and dryness quantile
	// classes, on the same 0-4 scale.
	ClimateClass *float64
	hasPrecip    bool
}

type currentConditions struct {
	Current struct {
		WindDirection *float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

// buildRanking derives one row per province with a mean temperature, ordered
// hottest first. forecast may be nil.
func buildRanking(clim *domain.ClimatologyOutput, forecast *domain.ForecastOutput) []rankingRow {
	rows := make([]rankingRow, 0, len(clim.Provinces))
	for _, name := range sortedKeys(clim.Provinces) {
		c := clim.Provinces[name]

		var temps, precips, codes []*float64
		for _, stat := range c.MonthlyStatistics {
			temps = append(temps, stat.TempMean)
			precips = append(precips, stat.PrecipitationSum)
			if stat.MostCommonWeatherCode != nil {
				code := float64(*stat.MostCommonWeatherCode)
				codes = append(codes, &code)
			}
		}

		mean := domain.Average(temps)
		if mean == nil {
			continue
		}
		row := rankingRow{Province: name, MeanTemp: *mean, Wind: "-", Dominant: "-"}
		if total := domain.Sum(precips); total != nil && c.Period.Years > 0 {
			row.AnnualPrecip = *total / float64(c.Period.Years)
			row.hasPrecip = true
		}
		if mode := domain.Mode(codes); mode != nil {
			row.Dominant = domain.WeatherCondition(int(*mode))
		}
		if forecast != nil {
			row.Wind = currentWind(forecast.Provinces[name])
		}
		rows = append(rows, row)
	}

	temps := make([]float64, len(rows))
	var precips []float64
	for i, r := range rows {
		temps[i] = r.MeanTemp
		if r.hasPrecip {
			precips = append(precips, r.AnnualPrecip)
		}
	}
	tempBreaks := domain.QuantileBreaks(temps, quantileClasses)
	precipBreaks := domain.QuantileBreaks(precips, quantileClasses)

	for i := range rows {
		r := &rows[i]
		r.TempRank = domain.Rank(r.MeanTemp, temps)
		r.TempPct = domain.Percentile(r.MeanTemp, temps)

		heat := float64(classOf(r.MeanTemp, tempBreaks))
		scores := map[string]*float64{"heat": &heat}
		if r.hasPrecip {
			r.PrecipClass = classOf(r.AnnualPrecip, precipBreaks)
			dryness := float64(quantileClasses - 1 - r.PrecipClass)
			scores["dryness"] = &dryness
		}
		r.ClimateClass = domain.WeightedMean(scores, climateWeights)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TempRank < rows[j].TempRank })
	return rows
}

// classOf returns the 0-based quantile class of v given n+1 breaks.
func classOf(v float64, breaks []float64) int {
	if len(breaks) < 2 {
		return 0
	}
	class := 0
	for _, b := range breaks[1 : len(breaks)-1] {
		if v >= b {
			class++
		}
	}
	return class
}

func currentWind(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "-"
	}
	var cur currentConditions
	if err := json.Unmarshal(payload, &cur); err != nil || cur.Current.WindDirection == nil {
		return "-"
	}
	return domain.WindDirection(*cur.Current.WindDirection)
}

func printRanking(w io.Writer, rows []rankingRow, top int) {
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}
	fmt.Fprintf(w, "Climatology ranking (hottest %d of %d)\n", top, len(rows))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tProvince\tMean °C\tPctl\tPrecip mm/yr\tClass\tDominant weather\tWind now\tClimate class")
	for _, r := range rows[:top] {
		precip := "-"
		class := "-"
		if r.hasPrecip {
			precip = fmt.Sprintf("%.0f", r.AnnualPrecip)
			class = fmt.Sprintf("%d/%d", r.PrecipClass+1, quantileClasses)
		}
		climate := "-"
		if r.ClimateClass != nil {
			climate = fmt.Sprintf("%.1f/%d", *r.ClimateClass, quantileClasses-1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d\t%s\t%s\t%s\t%s\t%s\n",
			domain.Ordinal(r.TempRank), r.Province, r.MeanTemp, r.TempPct, precip, class, r.Dominant, r.Wind, climate)
	}
	_ = tw.Flush()
}
