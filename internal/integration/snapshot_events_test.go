//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/province-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/province-weather-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/province-weather-etl/internal/domain"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshotTopic = "test-snapshots"

// TestForecastJobPublishesSnapshotEvent runs the forecast job against a fake
// upstream and a real broker, then reads the announced event back.
func TestForecastJobPublishesSnapshotEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	upstream := fakeForecastServer(t)
	opts := openmeteo.DefaultOptions()
	opts.ForecastURL = upstream.URL
	opts.HTTPClient = upstream.Client()
	client := openmeteo.NewClient(opts, discardLogger())

	publisher := kafka.NewPublisher([]string{broker}, testSnapshotTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	out := filepath.Join(t.TempDir(), "weather-current.json")
	job := pipeline.NewForecastJob(
		pipeline.ForecastConfig{OutputPath: out, Timezone: "Europe/Istanbul", ForecastDays: 7},
		client,
		pipeline.FileProvinces("../../data/provinces-coordinates.json"),
		jsonfile.Writer{},
		publisher,
		pipeline.RunnerOptions{BatchSize: 20, Retry: pipeline.RetryPolicy{MaxAttempts: 1}},
		nil,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	rep, err := job.Run(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Complete())
	assert.Equal(t, 81, rep.ProvincesCount)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var snapshot domain.ForecastOutput
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot.Provinces, 81)
	assert.Contains(t, snapshot.Provinces, "İstanbul")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSnapshotTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read snapshot event")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, domain.JobForecast, string(msg.Key))
	assert.Equal(t, domain.JobForecast, headers["job"])
	assert.NotEmpty(t, headers["generated_at"])

	var event domain.SnapshotEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, rep.RunID, event.RunID)
	assert.Equal(t, out, event.Path)
	assert.Equal(t, 81, event.ProvincesCount)
	assert.Equal(t, 81, event.ExpectedCount)
	assert.True(t, event.Complete)
}
