// Command fetch-weather builds the current/forecast snapshot once. It exits
// non-zero when the run fails or the snapshot is missing any province.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/province-weather-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/province-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/province-weather-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/province-weather-etl/internal/config"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	os.Exit(run(cfg, observability.NewMetrics()))
}

func run(cfg *config.Config, metrics *observability.Metrics) int {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	var notifier pipeline.Notifier = pipeline.NopNotifier{}
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() { _ = publisher.Close() }()
		notifier = publisher
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := pipeline.NewForecastJob(
		cfg.ForecastConfig(),
		openmeteo.NewClient(cfg.OpenMeteoOptions(), logger),
		pipeline.FileProvinces(cfg.ProvincesFile),
		jsonfile.Writer{},
		notifier,
		cfg.RunnerOptions(),
		nil,
		logger,
		metrics,
	)

	rep, err := job.Run(ctx)
	if err != nil {
		logger.Error("forecast job failed", "error", err)
		return 1
	}
	if !rep.Complete() {
		logger.Error("forecast snapshot incomplete",
			"path", rep.Path,
			"provinces", rep.ProvincesCount,
			"expected", rep.ExpectedCount,
		)
		return 1
	}
	logger.Info("forecast snapshot written", "path", rep.Path, "provinces", rep.ProvincesCount, "duration", rep.Duration)
	return 0
}
