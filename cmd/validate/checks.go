package main

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
)

var monthKey = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// monthOf returns the YYYY-MM prefix of a date.
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

func provinceNames(provinces []domain.Province) []string {
	names := make([]string, len(provinces))
	for i, p := range provinces {
		names[i] = p.Name
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validateLookup checks that every province stays resolvable when a consumer
// spells it in lower case or without Turkish diacritics.
func validateLookup(provinces []domain.Province) *phase {
	p := &phase{name: "Province name lookup"}
	names := provinceNames(provinces)
	for _, name := range names {
		for _, variant := range []string{name, strings.ToLower(name), strings.ToUpper(name)} {
			got, ok := domain.LookupName(variant, names)
			if !ok {
				p.errorf("%q: variant %q does not resolve", name, variant)
				continue
			}
			if got != name {
				p.errorf("%q: variant %q resolves to %q", name, variant, got)
			}
		}
	}
	return p
}

type forecastLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func validateForecast(out *domain.ForecastOutput, provinces []domain.Province, tolerance float64) *phase {
	p := &phase{name: "Weather snapshot"}
	byName := make(map[string]domain.Province, len(provinces))
	for _, pr := range provinces {
		byName[pr.Name] = pr
	}

	md := out.Metadata
	if md.ProvincesCount != len(out.Provinces) {
		p.errorf("metadata.provincesCount %d, snapshot has %d provinces", md.ProvincesCount, len(out.Provinces))
	}
	if md.ExpectedCount != len(provinces) {
		p.errorf("metadata.expectedCount %d, province file has %d", md.ExpectedCount, len(provinces))
	}
	if md.ProvincesCount < md.ExpectedCount {
		p.errorf("snapshot incomplete: %d of %d provinces", md.ProvincesCount, md.ExpectedCount)
	}
	if md.Source != domain.ForecastSource {
		p.errorf("metadata.source %q", md.Source)
	}

	for _, name := range sortedKeys(out.Provinces) {
		pr, ok := byName[name]
		if !ok {
			p.errorf("%q is not an exact province name", name)
			continue
		}
		var loc forecastLocation
		if err := json.Unmarshal(out.Provinces[name], &loc); err != nil {
			p.errorf("%q: payload is not an object: %v", name, err)
			continue
		}
		if loc.Latitude == nil || loc.Longitude == nil {
			p.errorf("%q: payload has no coordinates", name)
			continue
		}
		if math.Abs(*loc.Latitude-pr.Latitude) > tolerance || math.Abs(*loc.Longitude-pr.Longitude) > tolerance {
			p.errorf("%q: payload is at (%.4f, %.4f), province at (%.4f, %.4f)",
				name, *loc.Latitude, *loc.Longitude, pr.Latitude, pr.Longitude)
		}
	}
	return p
}

func validateClimatology(out *domain.ClimatologyOutput, provinces []domain.Province) *phase {
	p := &phase{name: "Climatology snapshot"}
	byName := make(map[string]domain.Province, len(provinces))
	for _, pr := range provinces {
		byName[pr.Name] = pr
	}

	md := out.Metadata
	if md.ProvincesCount != len(out.Provinces) {
		p.errorf("metadata.provincesCount %d, snapshot has %d provinces", md.ProvincesCount, len(out.Provinces))
	}
	total := 0
	for _, name := range sortedKeys(out.Provinces) {
		c := out.Provinces[name]
		total += c.RawDataPoints

		pr, ok := byName[name]
		if !ok {
			p.errorf("%q is not an exact province name", name)
			continue
		}
		if c.Province != name || c.ProvinceID != pr.ID {
			p.errorf("%q: entry names %q (id %d), want id %d", name, c.Province, c.ProvinceID, pr.ID)
		}
		if c.Period != md.Period {
			p.errorf("%q: period %+v differs from metadata %+v", name, c.Period, md.Period)
		}

		days := 0
		for month, stat := range c.MonthlyStatistics {
			days += stat.DaysCount
			if !monthKey.MatchString(month) {
				p.errorf("%q: malformed month key %q", name, month)
				continue
			}
			if month < monthOf(md.Period.Start) || month > monthOf(md.Period.End) {
				p.errorf("%q: month %s outside period %s..%s", name, month, md.Period.Start, md.Period.End)
			}
		}
		if days != c.RawDataPoints {
			p.errorf("%q: daysCount sums to %d, rawDataPoints is %d", name, days, c.RawDataPoints)
		}
	}
	if total != md.TotalDataPoints {
		p.errorf("metadata.totalDataPoints %d, provinces sum to %d", md.TotalDataPoints, total)
	}
	return p
}
