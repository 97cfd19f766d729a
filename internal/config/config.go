package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Timezone names the zone schedules and forecasts are evaluated in.
	Timezone string
	Location *time.Location

	// Open-Meteo forecast configuration.
	OpenMeteoURL     string
	OpenMeteoTimeout time.Duration

	// Kafka result publishing configuration.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	openMeteoTimeoutStr := sharedcfg.EnvOrDefault("OPENMETEO_TIMEOUT", "10s")
	openMeteoTimeout, err := time.ParseDuration(openMeteoTimeoutStr)
	if err != nil || openMeteoTimeout <= 0 {
		return nil, errors.New("invalid OPENMETEO_TIMEOUT")
	}

	timezone := sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Bangkok")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	// Publishing turns on when brokers are set explicitly; KAFKA_ENABLED overrides.
	kafkaEnabled := os.Getenv("KAFKA_BROKERS") != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Timezone: timezone,
		Location: loc,

		OpenMeteoURL:     sharedcfg.EnvOrDefault("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoTimeout: openMeteoTimeout,

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "burn-simulation-results"),
	}

	if u, err := url.Parse(cfg.OpenMeteoURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid OPENMETEO_URL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required")
	}

	return cfg, nil
}
