package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/worker"
)

// Config is read from HMS_-prefixed environment variables; the worker is
// deployed standalone and carries no config file.
type Config struct {
	DatabaseURL         string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL            string `envconfig:"REDIS_URL" required:"true"`
	MetricsPort         int    `envconfig:"METRICS_PORT" default:"9090"`
	BatchSize           int    `envconfig:"BATCH_SIZE" default:"100"`
	PollIntervalSeconds int    `envconfig:"POLL_INTERVAL_SECONDS" default:"5"`
	RetryAttempts       int    `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelaySeconds   int    `envconfig:"RETRY_DELAY_SECONDS" default:"5"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("hms", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appLogger := logger.NewLogger(nil)

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.BatchSize,
		PollInterval:  time.Duration(cfg.PollIntervalSeconds) * time.Second,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, appLogger, metrics.NewMetrics("hms", "worker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start metrics server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("metrics server forced to shutdown")
	}
}
