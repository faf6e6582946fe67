package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/repository"
	"github.com/noah-isme/portal-agenda-api/internal/service"
	"github.com/noah-isme/portal-agenda-api/pkg/cache"
	"github.com/noah-isme/portal-agenda-api/pkg/config"
	"github.com/noah-isme/portal-agenda-api/pkg/database"
	"github.com/noah-isme/portal-agenda-api/pkg/logger"
	"github.com/noah-isme/portal-agenda-api/pkg/signing"
)

// The worker processes day-before reminders enqueued by the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	signer := signing.NewLinkSigner(cfg.SignedLinks.Secret, cfg.SignedLinks.TTL)
	notifications := service.NewNotificationService(repository.NewBookingRepository(db), nil, service.NewLogNotifier(logr), signer, metrics, logr, service.NotificationConfig{
		Location:       cfg.Location(),
		ConfirmBaseURL: cfg.SignedLinks.BaseURL,
	})

	srv := asynq.NewServer(cache.AsynqOpt(cfg.Redis, cfg.Reminders.RedisDB), asynq.Config{
		Concurrency: cfg.Reminders.Concurrency,
		Logger:      logr.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logr.Warn("reminder task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TypeBookingReminder, service.NewReminderHandler(notifications, logr))

	logr.Info("notification worker starting", zap.Int("concurrency", cfg.Reminders.Concurrency), zap.Int("redis_db", cfg.Reminders.RedisDB))
	if err := srv.Run(mux); err != nil {
		logr.Fatal("notification worker stopped", zap.Error(err))
	}
}
