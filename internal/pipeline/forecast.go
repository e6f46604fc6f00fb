package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ForecastSource fetches current conditions and the forecast for a batch.
type ForecastSource interface {
	FetchForecast(ctx context.Context, batch []domain.Province) ([]domain.ForecastRecord, error)
}

// ForecastConfig describes the forecast snapshot.
type ForecastConfig struct {
	OutputPath   string
	Timezone     string
	ForecastDays int
}

// ForecastJob builds the current/forecast snapshot. Upstream payloads are
// passed through untouched under the exact province name.
type ForecastJob struct {
	cfg    ForecastConfig
	runner *Runner[domain.ForecastRecord, json.RawMessage]
	deps   jobDeps
}

// NewForecastJob wires the forecast job. A nil notifier disables events.
func NewForecastJob(cfg ForecastConfig, source ForecastSource, load ProvinceLoader, writer SnapshotWriter, notifier Notifier, opts RunnerOptions, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *ForecastJob {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	fetch := BatchSourceFunc[domain.ForecastRecord](source.FetchForecast)
	passthrough := func(_ domain.Province, rec domain.ForecastRecord) json.RawMessage { return rec.Payload }

	return &ForecastJob{
		cfg:    cfg,
		runner: NewRunner[domain.ForecastRecord, json.RawMessage](domain.JobForecast, fetch, passthrough, opts, clock, logger, metrics),
		deps: jobDeps{
			load:     load,
			writer:   writer,
			notifier: notifier,
			logger:   logger,
			metrics:  metrics,
		},
	}
}

// Name identifies the job in logs and schedules.
func (j *ForecastJob) Name() string { return domain.JobForecast }

// Run fetches every batch and writes the snapshot, partial or not. The error
// is non-nil only when the province list cannot be read, the run is
// cancelled, or the snapshot cannot be written.
func (j *ForecastJob) Run(ctx context.Context) (Report, error) {
	provinces, err := j.deps.loadProvinces(domain.JobForecast)
	if err != nil {
		return Report{}, err
	}

	runID := newRunID()
	res, err := j.runner.Run(ctx, runID, provinces)
	if err != nil {
		j.deps.metrics.JobRuns.WithLabelValues(domain.JobForecast, "error").Inc()
		return Report{}, err
	}

	now := domain.Now()
	out := domain.NewForecastOutput(res.Items, res.Expected, j.cfg.Timezone, j.cfg.ForecastDays, now)
	rep := Report{
		RunID:          runID,
		Job:            domain.JobForecast,
		Path:           j.cfg.OutputPath,
		ProvincesCount: out.Metadata.ProvincesCount,
		ExpectedCount:  out.Metadata.ExpectedCount,
		DataPoints:     out.Metadata.ProvincesCount,
		Duration:       res.Duration,
	}
	if err := j.deps.persist(ctx, rep, out, now); err != nil {
		return rep, err
	}

	logger := j.deps.logger.With("job", domain.JobForecast, "run_id", runID)
	logger.Info("snapshot written",
		"path", rep.Path,
		"fetched", rep.ProvincesCount,
		"expected", rep.ExpectedCount,
		"duration", rep.Duration,
		"last_update", out.Metadata.LastUpdate,
	)
	if !rep.Complete() {
		logger.Warn("snapshot incomplete", "fetched", rep.ProvincesCount, "expected", rep.ExpectedCount)
	}
	return rep, nil
}
