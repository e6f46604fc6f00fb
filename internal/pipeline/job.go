package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/google/uuid"
)

// ProvinceLoader returns the entity list for one run.
type ProvinceLoader func() ([]domain.Province, error)

// FileProvinces loads the province list from path on every call.
func FileProvinces(path string) ProvinceLoader {
	return func() ([]domain.Province, error) { return domain.LoadProvinces(path) }
}

// SnapshotWriter persists a finished snapshot.
type SnapshotWriter interface {
	WriteSnapshot(path string, v any) error
}

// Notifier announces written snapshots to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, event domain.SnapshotEvent) error
}

// NopNotifier discards events. It is used when no event sink is configured.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, domain.SnapshotEvent) error { return nil }

// Report summarises one finished job run.
type Report struct {
	RunID          string
	Job            string
	Path           string
	ProvincesCount int
	ExpectedCount  int
	DataPoints     int
	Duration       time.Duration
}

// Complete reports whether every expected province was written.
func (r Report) Complete() bool { return r.ProvincesCount >= r.ExpectedCount }

// jobDeps are the collaborators shared by both jobs.
type jobDeps struct {
	load     ProvinceLoader
	writer   SnapshotWriter
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func newRunID() string { return uuid.NewString() }

// persist writes the snapshot, records run metrics and publishes the event.
// Publish failures are logged only.
func (d jobDeps) persist(ctx context.Context, rep Report, snapshot any, generatedAt time.Time) error {
	if err := d.writer.WriteSnapshot(rep.Path, snapshot); err != nil {
		d.metrics.JobRuns.WithLabelValues(rep.Job, "error").Inc()
		return fmt.Errorf("write %s snapshot: %w", rep.Job, err)
	}

	outcome := "complete"
	if !rep.Complete() {
		outcome = "partial"
	}
	d.metrics.JobRuns.WithLabelValues(rep.Job, outcome).Inc()
	d.metrics.JobDuration.WithLabelValues(rep.Job).Observe(rep.Duration.Seconds())
	d.metrics.LastSuccess.WithLabelValues(rep.Job).Set(float64(generatedAt.Unix()))

	event := domain.SnapshotEvent{
		RunID:          rep.RunID,
		Job:            rep.Job,
		Path:           rep.Path,
		ProvincesCount: rep.ProvincesCount,
		ExpectedCount:  rep.ExpectedCount,
		DataPoints:     rep.DataPoints,
		Complete:       rep.Complete(),
		GeneratedAt:    generatedAt,
	}
	if err := d.notifier.Publish(ctx, event); err != nil {
		d.logger.Warn("publish snapshot event failed", "job", rep.Job, "run_id", rep.RunID, "error", err)
	}
	return nil
}

func (d jobDeps) loadProvinces(job string) ([]domain.Province, error) {
	provinces, err := d.load()
	if err != nil {
		d.metrics.JobRuns.WithLabelValues(job, "error").Inc()
		return nil, fmt.Errorf("load provinces: %w", err)
	}
	return provinces, nil
}
