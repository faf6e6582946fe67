package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/portal-agenda-api/api/swagger"
	"github.com/noah-isme/portal-agenda-api/internal/events"
	"github.com/noah-isme/portal-agenda-api/internal/handler"
	"github.com/noah-isme/portal-agenda-api/internal/middleware"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/repository"
	"github.com/noah-isme/portal-agenda-api/internal/router"
	"github.com/noah-isme/portal-agenda-api/internal/service"
	"github.com/noah-isme/portal-agenda-api/pkg/cache"
	"github.com/noah-isme/portal-agenda-api/pkg/config"
	"github.com/noah-isme/portal-agenda-api/pkg/database"
	"github.com/noah-isme/portal-agenda-api/pkg/jobs"
	"github.com/noah-isme/portal-agenda-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/portal-agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/portal-agenda-api/pkg/middleware/requestid"
	"github.com/noah-isme/portal-agenda-api/pkg/signing"
)

// @title Portal Agenda API
// @version 1.0.0
// @description Agenda do consultório: disponibilidade, agendamentos e administração de horários.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("database migration failed", zap.Error(err))
		}
	}

	loc := cfg.Location()
	instanceID := instanceName()
	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.Pinger{"postgres": db}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
			logr.Warn("redis unavailable, falling back to in-process cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		}
	}

	var cacheRepo service.CacheRepository
	if cfg.Availability.Backend == config.CacheBackendRedis && redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	} else {
		cacheRepo = repository.NewMemoryCacheRepository(cfg.Availability.MaxDays, cfg.Availability.TTL)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Availability.TTL, logr, cfg.Availability.Enabled)
	availabilityCache := service.NewAvailabilityCache(cacheSvc, cfg.Availability.TTL, metrics, logr)

	windowRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	clinicRepo := repository.NewClinicServiceRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var publisher service.BookingEventPublisher
	if cfg.RabbitMQ.Enabled {
		bus, err := events.Dial(events.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange, Origin: instanceID}, logr)
		if err != nil {
			logr.Warn("rabbitmq unavailable, cache invalidation stays local", zap.Error(err))
		} else {
			defer bus.Close()
			publisher = bus
			go func() {
				if err := bus.Listen(ctx, availabilityCache); err != nil {
					logr.Error("booking event listener stopped", zap.Error(err))
				}
			}()
		}
	}

	signer := signing.NewLinkSigner(cfg.SignedLinks.Secret, cfg.SignedLinks.TTL)

	queue := jobs.NewQueue("notifications", nil, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnDrop: func(job jobs.Job, err error) {
			if n, ok := job.Payload.(models.BookingNotification); ok {
				metrics.RecordNotification(n.Kind, false)
			}
		},
	})
	notifications := service.NewNotificationService(bookingRepo, queue, service.NewLogNotifier(logr), signer, metrics, logr, service.NotificationConfig{
		Location:       loc,
		ConfirmBaseURL: cfg.SignedLinks.BaseURL,
	})
	queue.Start(ctx)
	defer queue.Stop()

	var reminders service.ReminderScheduler
	if cfg.Reminders.Enabled {
		client := asynq.NewClient(cache.AsynqOpt(cfg.Redis, cfg.Reminders.RedisDB))
		defer client.Close()
		reminders = service.NewReminderScheduler(client, cfg.Reminders.LeadTime, logr)
	}

	availabilitySvc := service.NewAvailabilityService(windowRepo, bookingRepo, clinicRepo, availabilityCache, metrics, logr, service.AvailabilityConfig{
		Location:    loc,
		Granularity: cfg.Scheduling.SlotGranularity,
		MaxDays:     cfg.Scheduling.MaxRangeDays,
	})
	bookingSvc := service.NewBookingService(bookingRepo, windowRepo, clinicRepo, service.BookingDeps{
		Cache:     availabilityCache,
		Events:    publisher,
		Notifier:  notifications,
		Reminders: reminders,
		Audit:     auditRepo,
		Signer:    signer,
		Metrics:   metrics,
	}, validate, logr, service.BookingConfig{
		Location:    loc,
		Granularity: cfg.Scheduling.SlotGranularity,
		InstanceID:  instanceID,
	})
	scheduleSvc := service.NewScheduleService(windowRepo, availabilityCache, publisher, auditRepo, validate, logr, service.ScheduleConfig{
		Location:   loc,
		InstanceID: instanceID,
	})
	exportSvc := service.NewExportService(bookingRepo, auditRepo, validate, logr, loc, cfg.Scheduling.MaxRangeDays, nil, nil)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, router.Deps{
		APIPrefix:     cfg.APIPrefix,
		EnableDocs:    cfg.Env != config.EnvProduction,
		Auth:          authSvc,
		Audit:         auditRepo,
		RateLimiter:   limiter,
		Metrics:       metrics,
		Logger:        logr,
		AuthH:         handler.NewAuthHandler(authSvc),
		AvailabilityH: handler.NewAvailabilityHandler(availabilitySvc),
		BookingH:      handler.NewBookingHandler(bookingSvc, exportSvc),
		ScheduleH:     handler.NewScheduleAdminHandler(scheduleSvc),
		MetricsH:      handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "instance", instanceID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return host + "-" + uuid.NewString()[:8]
}
