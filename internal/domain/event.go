package domain

import "time"

// Job names label logs, metrics and published events.
const (
	JobForecast    = "forecast"
	JobClimatology = "climatology"
)

// SnapshotEvent announces that a job wrote a new snapshot.
type SnapshotEvent struct {
	RunID          string    `json:"run_id"`
	Job            string    `json:"job"`
	Path           string    `json:"path"`
	ProvincesCount int       `json:"provinces_count"`
	ExpectedCount  int       `json:"expected_count"`
	DataPoints     int       `json:"data_points"`
	Complete       bool      `json:"complete"`
	GeneratedAt    time.Time `json:"generated_at"`
}
