package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchSource fetches one batch of provinces from an upstream endpoint and
// returns one record per province, in batch order.
type BatchSource[R any] interface {
	FetchBatch(ctx context.Context, batch []domain.Province) ([]R, error)
}

// BatchSourceFunc adapts a function to BatchSource.
type BatchSourceFunc[R any] func(ctx context.Context, batch []domain.Province) ([]R, error)

func (f BatchSourceFunc[R]) FetchBatch(ctx context.Context, batch []domain.Province) ([]R, error) {
	return f(ctx, batch)
}

// AggregateFunc turns one province's fetched record into its output entry.
type AggregateFunc[R, O any] func(p domain.Province, rec R) O

// RunnerOptions tunes the batch loop.
type RunnerOptions struct {
	BatchSize  int
	BatchDelay time.Duration
	Retry      RetryPolicy
}

// DefaultRunnerOptions matches the upstream rate limits.
var DefaultRunnerOptions = RunnerOptions{
	BatchSize:  10,
	BatchDelay: 150 * time.Millisecond,
	Retry:      DefaultRetryPolicy,
}

// Result is the outcome of one Runner pass.
type Result[O any] struct {
	// Items is keyed by exact province name.
	Items         map[string]O
	Expected      int
	Batches       int
	FailedBatches int
	Failed        int
	Duration      time.Duration
}

// Complete reports whether every province made it into Items.
func (r Result[O]) Complete() bool { return len(r.Items) == r.Expected }

// Runner partitions provinces into batches, fetches each batch in sequence
// with retries, and merges the aggregated records by province name. A failed
// batch is logged and counted; it never aborts its siblings.
type Runner[R, O any] struct {
	job       string
	source    BatchSource[R]
	aggregate AggregateFunc[R, O]
	opts      RunnerOptions
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRunner creates a Runner for the named job. A nil clock uses real time.
func NewRunner[R, O any](job string, source BatchSource[R], aggregate AggregateFunc[R, O], opts RunnerOptions, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Runner[R, O] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner[R, O]{
		job:       job,
		source:    source,
		aggregate: aggregate,
		opts:      opts,
		clock:     clock,
		logger:    logger.With("job", job),
		metrics:   metrics,
	}
}

// Run processes every batch. Every log line it writes carries runID. It
// returns an error only when ctx is cancelled; the partial result is returned
// alongside it.
func (r *Runner[R, O]) Run(ctx context.Context, runID string, provinces []domain.Province) (Result[O], error) {
	logger := r.logger.With("run_id", runID)
	start := r.clock.Now()
	batches := domain.Partition(provinces, r.opts.BatchSize)

	res := Result[O]{
		Items:    make(map[string]O, len(provinces)),
		Expected: len(provinces),
		Batches:  len(batches),
	}

	logger.Info("job started",
		"provinces", len(provinces),
		"batches", len(batches),
		"batch_size", r.opts.BatchSize,
	)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			res.Duration = r.clock.Since(start)
			return res, err
		}

		n := i + 1
		if err := r.runBatch(ctx, logger, n, len(batches), batch, res.Items); err != nil {
			if ctx.Err() != nil {
				res.Duration = r.clock.Since(start)
				return res, ctx.Err()
			}
			res.FailedBatches++
			res.Failed += len(batch)
		}

		if n < len(batches) && !sleepWithContext(ctx, r.clock, r.opts.BatchDelay) {
			res.Duration = r.clock.Since(start)
			return res, ctx.Err()
		}
	}

	res.Duration = r.clock.Since(start)
	r.metrics.ProvincesFetched.WithLabelValues(r.job).Set(float64(len(res.Items)))
	logger.Info("job finished",
		"fetched", len(res.Items),
		"expected", res.Expected,
		"failed_batches", res.FailedBatches,
		"duration", res.Duration,
	)
	return res, nil
}

func (r *Runner[R, O]) runBatch(ctx context.Context, logger *slog.Logger, n, total int, batch []domain.Province, items map[string]O) error {
	logger = logger.With("batch", n, "batches", total)
	logger.Debug("fetching batch", "provinces", len(batch))

	start := r.clock.Now()
	records, err := Retry(ctx, r.clock, r.opts.Retry, logger, func(ctx context.Context) ([]R, error) {
		recs, err := r.source.FetchBatch(ctx, batch)
		if err == nil && len(recs) != len(batch) {
			err = fmt.Errorf("got %d records for %d provinces", len(recs), len(batch))
		}
		if err != nil {
			r.metrics.FetchAttempts.WithLabelValues(r.job, "error").Inc()
			return nil, err
		}
		r.metrics.FetchAttempts.WithLabelValues(r.job, "success").Inc()
		return recs, nil
	})
	duration := r.clock.Since(start)
	r.metrics.BatchFetchDuration.WithLabelValues(r.job).Observe(duration.Seconds())

	if err != nil {
		r.metrics.Batches.WithLabelValues(r.job, "failed").Inc()
		logger.Error("batch failed", "provinces", len(batch), "duration", duration, "error", err)
		return err
	}

	for idx, p := range batch {
		items[p.Name] = r.aggregate(p, records[idx])
	}
	r.metrics.Batches.WithLabelValues(r.job, "success").Inc()
	logger.Info("batch completed", "provinces", len(batch), "duration", duration)
	return nil
}
