// Command build-climatology builds the monthly climatology snapshot once.
// A partial snapshot still exits zero; only a failed run exits non-zero.
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

	job := pipeline.NewClimatologyJob(
		cfg.ClimatologyConfig(),
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
		logger.Error("climatology job failed", "error", err)
		return 1
	}
	if !rep.Complete() {
		logger.Warn("climatology snapshot is partial",
			"path", rep.Path,
			"provinces", rep.ProvincesCount,
			"expected", rep.ExpectedCount,
		)
	}
	logger.Info("climatology snapshot written",
		"path", rep.Path,
		"provinces", rep.ProvincesCount,
		"data_points", rep.DataPoints,
		"duration", rep.Duration,
	)
	return 0
}
