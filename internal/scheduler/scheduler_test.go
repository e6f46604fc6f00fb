package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name  string
	rep   pipeline.Report
	err   error
	calls atomic.Int32
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(context.Context) (pipeline.Report, error) {
	j.calls.Add(1)
	return j.rep, j.err
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New([]Entry{{Job: &stubJob{name: "forecast"}, Schedule: "every day please"}}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast")
}

func TestCheckReadiness_BeforeAnyRun(t *testing.T) {
	s, err := New([]Entry{{Job: &stubJob{name: "forecast"}, Schedule: "0 5 * * *"}}, slog.Default())
	require.NoError(t, err)

	assert.ErrorIs(t, s.CheckReadiness(context.Background()), ErrNoRunYet)
}

func TestRun_PartialSnapshotMarksReady(t *testing.T) {
	job := &stubJob{name: "forecast", rep: pipeline.Report{ProvincesCount: 70, ExpectedCount: 81}}
	s, err := New(nil, slog.Default())
	require.NoError(t, err)

	s.run(job)

	assert.Equal(t, int32(1), job.calls.Load())
	assert.NoError(t, s.CheckReadiness(context.Background()))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "forecast", status[0].Job)
	assert.Equal(t, 70, status[0].ProvincesCount)
	assert.False(t, status[0].Complete)
	assert.Empty(t, status[0].Error)
}

func TestRun_FailedJobStaysNotReady(t *testing.T) {
	job := &stubJob{name: "climatology", err: errors.New("write snapshot: disk full")}
	s, err := New(nil, slog.Default())
	require.NoError(t, err)

	s.run(job)

	assert.ErrorIs(t, s.CheckReadiness(context.Background()), ErrNoRunYet)
	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "write snapshot: disk full", status[0].Error)
}

func TestStatus_SortedByJob(t *testing.T) {
	s, err := New(nil, slog.Default())
	require.NoError(t, err)

	s.run(&stubJob{name: "forecast", rep: pipeline.Report{ProvincesCount: 81, ExpectedCount: 81}})
	s.run(&stubJob{name: "climatology", rep: pipeline.Report{ProvincesCount: 81, ExpectedCount: 81}})

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "climatology", status[0].Job)
	assert.Equal(t, "forecast", status[1].Job)
	assert.True(t, status[1].Complete)
}

func TestStart_RunOnStart(t *testing.T) {
	job := &stubJob{name: "forecast", rep: pipeline.Report{ProvincesCount: 81, ExpectedCount: 81}}
	idle := &stubJob{name: "climatology"}
	s, err := New([]Entry{
		{Job: job, Schedule: "0 5 * * *", RunOnStart: true},
		{Job: idle, Schedule: "0 4 1 * *"},
	}, slog.Default())
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.CheckReadiness(context.Background()) == nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), job.calls.Load())
	assert.Equal(t, int32(0), idle.calls.Load())
}
