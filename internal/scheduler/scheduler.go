// Package scheduler runs the snapshot jobs on cron schedules for the daemon.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// ErrNoRunYet is reported by CheckReadiness until a job has finished a run.
var ErrNoRunYet = errors.New("no job has finished a run yet")

// Job is one snapshot job.
type Job interface {
	Name() string
	Run(ctx context.Context) (pipeline.Report, error)
}

// Entry binds a job to its cron expression.
type Entry struct {
	Job        Job
	Schedule   string
	RunOnStart bool
}

// Scheduler triggers jobs on their cron schedules. A job never overlaps a
// still-running invocation of itself.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	finished atomic.Bool

	mu     sync.Mutex
	status map[string]JobStatus
}

// JobStatus is the outcome of a job's most recent run.
type JobStatus struct {
	Job            string    `json:"job"`
	RunID          string    `json:"run_id,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
	ProvincesCount int       `json:"provinces_count"`
	ExpectedCount  int       `json:"expected_count"`
	Complete       bool      `json:"complete"`
	Error          string    `json:"error,omitempty"`
}

// New registers every entry. An invalid cron expression is an error.
func New(entries []Entry, logger *slog.Logger) (*Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	sch := &Scheduler{
		scheduler: s,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		status:    make(map[string]JobStatus),
	}

	for _, e := range entries {
		job := s.Cron(e.Schedule).Tag(e.Job.Name())
		if e.RunOnStart {
			job = job.StartImmediately()
		}
		if _, err := job.Do(sch.run, e.Job); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", e.Job.Name(), e.Schedule, err)
		}
		logger.Info("job scheduled", "job", e.Job.Name(), "schedule", e.Schedule, "run_on_start", e.RunOnStart)
	}
	return sch, nil
}

// Start begins triggering jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop cancels running jobs and stops future triggers.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// CheckReadiness returns nil once any job has finished a run, partial or not.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.finished.Load() {
		return ErrNoRunYet
	}
	return nil
}

// Status returns the latest outcome of every job that has run, by job name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (s *Scheduler) record(st JobStatus) {
	s.mu.Lock()
	s.status[st.Job] = st
	s.mu.Unlock()
}

func (s *Scheduler) run(job Job) {
	logger := s.logger.With("job", job.Name())
	logger.Info("job triggered")

	rep, err := job.Run(s.ctx)
	if err != nil {
		logger.Error("job failed", "error", err)
		s.record(JobStatus{Job: job.Name(), FinishedAt: domain.Now(), Error: err.Error()})
		return
	}
	s.finished.Store(true)
	s.record(JobStatus{
		Job:            job.Name(),
		RunID:          rep.RunID,
		FinishedAt:     domain.Now(),
		ProvincesCount: rep.ProvincesCount,
		ExpectedCount:  rep.ExpectedCount,
		Complete:       rep.Complete(),
	})

	if !rep.Complete() {
		logger.Warn("job finished with a partial snapshot",
			"run_id", rep.RunID,
			"provinces", rep.ProvincesCount,
			"expected", rep.ExpectedCount,
		)
		return
	}
	logger.Info("job finished", "run_id", rep.RunID, "duration", rep.Duration)
}
