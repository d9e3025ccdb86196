package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wardline/ward-api/internal/config"
	"github.com/wardline/ward-api/internal/email"
	"github.com/wardline/ward-api/internal/repository/postgres"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/messaging/redis"
	"github.com/wardline/ward-api/pkg/metrics"
	"github.com/wardline/ward-api/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("ward", "worker")
	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Worker.BatchSize,
		PollInterval:  cfg.Worker.PollInterval,
		RetryAttempts: cfg.Worker.RetryAttempts,
		RetryDelay:    cfg.Worker.RetryDelay,
		Channel:       cfg.Worker.Channel,
	}, log, m)

	cleanup := worker.NewOutboxCleanupWorker(outboxRepo,
		cfg.Worker.RetentionDays, cfg.Worker.CleanupInterval, log)

	var mailer email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(cfg.SMTP)
	}
	listener := email.NewListener(broker, mailer, cfg.Worker.Channel, cfg.SMTP.NotifyTo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)
	go cleanup.Start(ctx)
	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error(err, "email listener stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down workers")
	cancel()
}
