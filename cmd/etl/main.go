// Command etl runs the province weather daemon: both snapshot jobs on cron
// schedules plus the health, readiness, status and metrics endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/province-weather-etl/internal/adapter/http"
	"github.com/couchcryptid/province-weather-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/province-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/province-weather-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/province-weather-etl/internal/config"
	"github.com/couchcryptid/province-weather-etl/internal/observability"
	"github.com/couchcryptid/province-weather-etl/internal/pipeline"
	"github.com/couchcryptid/province-weather-etl/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Snapshot events are feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var notifier pipeline.Notifier = pipeline.NopNotifier{}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		notifier = publisher
		logger.Info("snapshot events enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot events disabled")
	}

	client := openmeteo.NewClient(cfg.OpenMeteoOptions(), logger)
	load := pipeline.FileProvinces(cfg.ProvincesFile)
	writer := jsonfile.Writer{}

	forecast := pipeline.NewForecastJob(cfg.ForecastConfig(), client, load, writer, notifier, cfg.RunnerOptions(), nil, logger, metrics)
	climatology := pipeline.NewClimatologyJob(cfg.ClimatologyConfig(), client, load, writer, notifier, cfg.RunnerOptions(), nil, logger, metrics)

	sched, err := scheduler.New([]scheduler.Entry{
		{Job: forecast, Schedule: cfg.WeatherSchedule, RunOnStart: cfg.RunOnStart},
		{Job: climatology, Schedule: cfg.ClimatologySchedule},
	}, logger)
	if err != nil {
		logger.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sched, sched, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
