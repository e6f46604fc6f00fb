// Package openmeteo fetches multi-location forecasts and daily archives from
// the Open-Meteo HTTP API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/sony/gobreaker"
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrLocationMismatch is returned when a response does not line up with
	// the requested batch by count or by coordinates.
	ErrLocationMismatch = errors.New("location mismatch")
	// ErrCircuitOpen is returned while an endpoint's circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// CircuitOpenError is returned when a breaker rejects a call without reaching
// the network. It matches ErrCircuitOpen and reports how long the breaker
// stays open, so a retry loop can wait instead of spending an attempt.
type CircuitOpenError struct {
	Breaker string
	Wait    time.Duration
	Err     error
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCircuitOpen, e.Breaker, e.Err)
}

func (e *CircuitOpenError) Unwrap() []error { return []error{ErrCircuitOpen, e.Err} }

// RetryAfter is the breaker's open-state timeout.
func (e *CircuitOpenError) RetryAfter() time.Duration { return e.Wait }

// maxErrorBody caps how much of an error response is read into the error.
const maxErrorBody = 512

// Options configures the client. Zero values are replaced by DefaultOptions.
type Options struct {
	ForecastURL         string
	ArchiveURL          string
	Timezone            string
	ForecastDays        int
	ArchiveStart        time.Time
	ArchiveEnd          time.Time
	CoordinateTolerance float64
	HTTPTimeout         time.Duration
	// BreakerTimeout is how long a tripped breaker rejects calls before
	// letting one through.
	BreakerTimeout      time.Duration

	// HTTPClient overrides the client built from HTTPTimeout.
	HTTPClient *http.Client
}

// DefaultOptions returns the production endpoints and the 2020-2024 window.
func DefaultOptions() Options {
	return Options{
		ForecastURL:         "https://api.open-meteo.com/v1/forecast",
		ArchiveURL:          "https://archive-api.open-meteo.com/v1/archive",
		Timezone:            "Europe/Istanbul",
		ForecastDays:        7,
		ArchiveStart:        time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		ArchiveEnd:          time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		CoordinateTolerance: 0.5,
		HTTPTimeout:         30 * time.Second,
		BreakerTimeout:      30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ForecastURL == "" {
		o.ForecastURL = d.ForecastURL
	}
	if o.ArchiveURL == "" {
		o.ArchiveURL = d.ArchiveURL
	}
	if o.Timezone == "" {
		o.Timezone = d.Timezone
	}
	if o.ForecastDays <= 0 {
		o.ForecastDays = d.ForecastDays
	}
	if o.ArchiveStart.IsZero() {
		o.ArchiveStart = d.ArchiveStart
	}
	if o.ArchiveEnd.IsZero() {
		o.ArchiveEnd = d.ArchiveEnd
	}
	if o.CoordinateTolerance <= 0 {
		o.CoordinateTolerance = d.CoordinateTolerance
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = d.HTTPTimeout
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = d.BreakerTimeout
	}
	return o
}

// Client calls the forecast and archive endpoints. Each endpoint has its own
// circuit breaker so an archive outage does not block forecasts.
type Client struct {
	httpClient *http.Client
	opts       Options
	forecastCB *gobreaker.CircuitBreaker
	archiveCB  *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	opts = opts.withDefaults()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.HTTPTimeout}
	}

	return &Client{
		httpClient: httpClient,
		opts:       opts,
		forecastCB: newBreaker("openmeteo-forecast", opts.BreakerTimeout, logger),
		archiveCB:  newBreaker("openmeteo-archive", opts.BreakerTimeout, logger),
		logger:     logger,
	}
}

func newBreaker(name string, timeout time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// get performs one GET through cb and returns the response body.
func (c *Client) get(ctx context.Context, cb *gobreaker.CircuitBreaker, endpoint string, params url.Values) ([]byte, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("open-meteo request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, apiReason(body))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &CircuitOpenError{Breaker: cb.Name(), Wait: c.opts.BreakerTimeout, Err: err}
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T from circuit breaker", result)
	}
	return body, nil
}

// apiReason extracts the "reason" of an Open-Meteo error document, falling
// back to the raw body.
func apiReason(body []byte) string {
	var doc struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && doc.Reason != "" {
		return doc.Reason
	}
	return strings.TrimSpace(string(body))
}

// coordinateParams builds the comma-joined latitude and longitude lists.
func coordinateParams(batch []domain.Province) url.Values {
	lats := make([]string, len(batch))
	lons := make([]string, len(batch))
	for i, p := range batch {
		lats[i] = strconv.FormatFloat(p.Latitude, 'f', -1, 64)
		lons[i] = strconv.FormatFloat(p.Longitude, 'f', -1, 64)
	}
	return url.Values{
		"latitude":  {strings.Join(lats, ",")},
		"longitude": {strings.Join(lons, ",")},
	}
}

// splitLocations accepts either a JSON array of objects or a single object
// and returns the elements.
func splitLocations(body []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode location list: %w", err)
		}
		return list, nil
	}

	var single json.RawMessage
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	return []json.RawMessage{single}, nil
}

// checkPositions verifies that got lines up with batch: same length, and each
// returned grid point within tol degrees of the requested centroid.
func checkPositions(batch []domain.Province, got []domain.Coordinates, tol float64) error {
	if len(got) != len(batch) {
		return fmt.Errorf("%w: requested %d locations, got %d", ErrLocationMismatch, len(batch), len(got))
	}
	for i, p := range batch {
		if math.Abs(got[i].Latitude-p.Latitude) > tol || math.Abs(got[i].Longitude-p.Longitude) > tol {
			return fmt.Errorf("%w: position %d (%s) requested %.4f,%.4f, got %.4f,%.4f",
				ErrLocationMismatch, i, p.Name, p.Latitude, p.Longitude, got[i].Latitude, got[i].Longitude)
		}
	}
	return nil
}
