// Command validate checks the written snapshots against the contract their
// consumers rely on: exact province-name keys, metadata counts, and monthly
// roll-up totals. It then prints a climatology ranking table.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -provinces data/provinces-coordinates.json \
//	  -weather data/weather-current.json \
//	  -climatology data/weather-climatology-2020-2024.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	provincesPath := flag.String("provinces", "data/provinces-coordinates.json", "province coordinate file")
	weatherPath := flag.String("weather", "", "current/forecast snapshot (skipped when empty)")
	climatologyPath := flag.String("climatology", "", "climatology snapshot (skipped when empty)")
	top := flag.Int("top", 10, "rows of the ranking table")
	tolerance := flag.Float64("tolerance", 0.5, "allowed grid-point offset in degrees")
	flag.Parse()

	if *weatherPath == "" && *climatologyPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*provincesPath, *weatherPath, *climatologyPath, *top, *tolerance); code != 0 {
		os.Exit(code)
	}
}

func run(provincesPath, weatherPath, climatologyPath string, top int, tolerance float64) int {
	fmt.Println("=== Province Weather Snapshot Validation ===")
	fmt.Println()

	provinces, err := domain.LoadProvinces(provincesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load provinces: %v\n", err)
		return 1
	}

	var (
		forecast    *domain.ForecastOutput
		climatology *domain.ClimatologyOutput
	)
	if weatherPath != "" {
		forecast, err = loadJSON[domain.ForecastOutput](weatherPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load weather snapshot: %v\n", err)
			return 1
		}
	}
	if climatologyPath != "" {
		climatology, err = loadJSON[domain.ClimatologyOutput](climatologyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load climatology snapshot: %v\n", err)
			return 1
		}
	}

	phases := []*phase{validateLookup(provinces)}
	if forecast != nil {
		phases = append(phases, validateForecast(forecast, provinces, tolerance))
	}
	if climatology != nil {
		phases = append(phases, validateClimatology(climatology, provinces))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if climatology != nil {
		fmt.Println()
		printRanking(os.Stdout, buildRanking(climatology, forecast), top)
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &v, nil
}
