package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-booking-api/api/swagger"
	"github.com/noah-isme/tutor-booking-api/internal/handler"
	"github.com/noah-isme/tutor-booking-api/internal/repository"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/cache"
	"github.com/noah-isme/tutor-booking-api/pkg/config"
	"github.com/noah-isme/tutor-booking-api/pkg/database"
	"github.com/noah-isme/tutor-booking-api/pkg/events"
	"github.com/noah-isme/tutor-booking-api/pkg/logger"
)

// @title Tutor Booking API
// @version 1.0.0
// @description Teacher availability and lesson booking
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	ruleRepo := repository.NewAvailabilityRuleRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled && redisClient != nil)

	var publisher service.EventPublisher
	checks := map[string]handler.Pinger{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	}
	if writer := events.NewWriter(cfg.Notifications); writer != nil {
		publisher = writer
		checks["kafka"] = events.ReadyCheck(cfg.Notifications.KafkaBrokers)
		defer writer.Close() //nolint:errcheck
		logr.Info("publishing lesson events", zap.String("topic", cfg.Notifications.KafkaTopic))
	}
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Rules:    ruleRepo,
		Lessons:  lessonRepo,
		Teachers: teacherRepo,
		Cache:    cacheSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
		Config: service.AvailabilityConfig{
			MaxRangeDays:    cfg.Availability.MaxRangeDays,
			DefaultTimezone: cfg.Availability.DefaultTimezone,
			SlotDuration:    cfg.Availability.SlotDuration,
			SlotStep:        cfg.Availability.SlotStep,
			CacheTTL:        cfg.Availability.CacheTTL,
		},
	})
	ruleSvc := service.NewAvailabilityRuleService(ruleRepo, teacherRepo, cacheSvc, validate, logr)
	checker := service.NewConflictChecker(lessonRepo, validate, metricsSvc, logr)
	lessonSvc := service.NewLessonService(service.LessonServiceParams{
		Lessons:   lessonRepo,
		Tx:        db,
		Checker:   checker,
		Teachers:  teacherRepo,
		Students:  studentRepo,
		Notifier:  notificationSvc,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})
	exportSvc := service.NewExportService(availabilitySvc, lessonRepo, teacherRepo, service.ExportConfig{Enabled: cfg.Exports.Enabled}, logr, nil, nil)

	r := newRouter(cfg, logr, routeDeps{
		tokens:       service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer),
		metrics:      metricsSvc,
		health:       handler.NewMetricsHandler(metricsSvc, checks),
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		rules:        handler.NewAvailabilityRuleHandler(ruleSvc),
		lessons:      handler.NewLessonHandler(lessonSvc),
		exports:      handler.NewExportHandler(exportSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
