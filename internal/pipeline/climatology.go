package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ArchiveSource fetches the daily archive window for a batch.
type ArchiveSource interface {
	FetchArchive(ctx context.Context, batch []domain.Province) ([]domain.HistoricalRecord, error)
}

// ClimatologyConfig describes the climatology snapshot.
type ClimatologyConfig struct {
	OutputPath string
	Start      time.Time
	End        time.Time
}

// ClimatologyJob builds the monthly climatology snapshot.
type ClimatologyJob struct {
	cfg    ClimatologyConfig
	runner *Runner[domain.HistoricalRecord, domain.ProvinceClimatology]
	deps   jobDeps
}

// NewClimatologyJob wires the climatology job. A nil notifier disables events.
func NewClimatologyJob(cfg ClimatologyConfig, source ArchiveSource, load ProvinceLoader, writer SnapshotWriter, notifier Notifier, opts RunnerOptions, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *ClimatologyJob {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	period := domain.NewPeriod(cfg.Start, cfg.End)
	fetch := BatchSourceFunc[domain.HistoricalRecord](source.FetchArchive)
	rollup := func(p domain.Province, rec domain.HistoricalRecord) domain.ProvinceClimatology {
		return domain.NewProvinceClimatology(p, rec, period)
	}

	return &ClimatologyJob{
		cfg:    cfg,
		runner: NewRunner[domain.HistoricalRecord, domain.ProvinceClimatology](domain.JobClimatology, fetch, rollup, opts, clock, logger, metrics),
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
func (j *ClimatologyJob) Name() string { return domain.JobClimatology }

// Run fetches every batch, rolls each province up by month and writes the
// snapshot. A partial snapshot is not an error.
func (j *ClimatologyJob) Run(ctx context.Context) (Report, error) {
	provinces, err := j.deps.loadProvinces(domain.JobClimatology)
	if err != nil {
		return Report{}, err
	}

	runID := newRunID()
	res, err := j.runner.Run(ctx, runID, provinces)
	if err != nil {
		j.deps.metrics.JobRuns.WithLabelValues(domain.JobClimatology, "error").Inc()
		return Report{}, err
	}

	now := domain.Now()
	out := domain.NewClimatologyOutput(res.Items, domain.NewPeriod(j.cfg.Start, j.cfg.End), now)
	rep := Report{
		RunID:          runID,
		Job:            domain.JobClimatology,
		Path:           j.cfg.OutputPath,
		ProvincesCount: out.Metadata.ProvincesCount,
		ExpectedCount:  res.Expected,
		DataPoints:     out.Metadata.TotalDataPoints,
		Duration:       res.Duration,
	}
	if err := j.deps.persist(ctx, rep, out, now); err != nil {
		return rep, err
	}

	j.deps.logger.Info("snapshot written",
		"job", domain.JobClimatology,
		"run_id", runID,
		"path", rep.Path,
		"fetched", rep.ProvincesCount,
		"failed", res.Failed,
		"data_points", rep.DataPoints,
		"duration", rep.Duration,
	)
	return rep, nil
}
