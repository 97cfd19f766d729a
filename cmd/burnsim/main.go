package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/SurawutP/Projectpm2.5/internal/adapter/httpadapter"
	kafkaadapter "github.com/SurawutP/Projectpm2.5/internal/adapter/kafka"
	"github.com/SurawutP/Projectpm2.5/internal/adapter/openmeteo"
	"github.com/SurawutP/Projectpm2.5/internal/config"
	"github.com/SurawutP/Projectpm2.5/internal/observability"
	"github.com/SurawutP/Projectpm2.5/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	weather := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.OpenMeteoTimeout, metrics, logger)
	logger.Info("open-meteo forecast source", "url", cfg.OpenMeteoURL, "timeout", cfg.OpenMeteoTimeout)

	// Result publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher session.ResultPublisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		metrics.PublishEnabled.Set(1)
		logger.Info("result publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		metrics.PublishEnabled.Set(0)
		logger.Info("result publishing disabled")
	}

	sess := session.New(weather, publisher, cfg.Location, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, sess, cfg.Location, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
