package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/province-weather-etl/internal/config"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProvinces writes n valid provinces to a temp file and returns its path.
func writeProvinces(t *testing.T, n int) string {
	t.Helper()
	entries := make([]string, n)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"id":%d,"name":"Province %02d","region":"Test","latitude":%.1f,"longitude":%.1f}`,
			i+1, i+1, 36+float64(i)*0.1, 26+float64(i)*0.2)
	}
	path := filepath.Join(t.TempDir(), "provinces.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provinces":[`+strings.Join(entries, ",")+`]}`), 0o644))
	return path
}

// forecastServer echoes the requested coordinates as forecast locations. When
// failSmallBatches is set, any batch of fewer than 10 locations gets a 500.
func forecastServer(t *testing.T, failSmallBatches bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lats := strings.Split(r.URL.Query().Get("latitude"), ",")
		lons := strings.Split(r.URL.Query().Get("longitude"), ",")
		if failSmallBatches && len(lats) < 10 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		locs := make([]string, len(lats))
		for i := range lats {
			locs[i] = fmt.Sprintf(`{"latitude":%s,"longitude":%s,"current":{"temperature_2m":10}}`, lats[i], lons[i])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "["+strings.Join(locs, ",")+"]")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, apiURL, provincesFile string) *config.Config {
	t.Helper()
	t.Setenv("FORECAST_API_URL", apiURL)
	t.Setenv("PROVINCES_FILE", provincesFile)
	t.Setenv("WEATHER_OUTPUT_FILE", filepath.Join(t.TempDir(), "weather-current.json"))
	t.Setenv("BATCH_DELAY", "0s")
	t.Setenv("RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("RETRY_BASE_DELAY", "0s")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestRun_FullSuccessExitsZero(t *testing.T) {
	srv := forecastServer(t, false)
	cfg := loadConfig(t, srv.URL, writeProvinces(t, 15))

	assert.Equal(t, 0, run(cfg, observability.NewMetricsForTesting()))
	assert.FileExists(t, cfg.WeatherOutputFile)
}

func TestRun_FailedBatchExitsOne(t *testing.T) {
	srv := forecastServer(t, true)
	cfg := loadConfig(t, srv.URL, writeProvinces(t, 15))

	assert.Equal(t, 1, run(cfg, observability.NewMetricsForTesting()))
	// The partial snapshot is still written.
	assert.FileExists(t, cfg.WeatherOutputFile)
}

func TestRun_MissingProvinceFileExitsOne(t *testing.T) {
	srv := forecastServer(t, false)
	cfg := loadConfig(t, srv.URL, filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, 1, run(cfg, observability.NewMetricsForTesting()))
	assert.NoFileExists(t, cfg.WeatherOutputFile)
}
