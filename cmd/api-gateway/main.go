package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/noah-isme/lakeview-records-api/api/swagger"
	"github.com/noah-isme/lakeview-records-api/internal/handler"
	"github.com/noah-isme/lakeview-records-api/internal/repository"
	"github.com/noah-isme/lakeview-records-api/internal/service"
	"github.com/noah-isme/lakeview-records-api/pkg/cache"
	"github.com/noah-isme/lakeview-records-api/pkg/config"
	"github.com/noah-isme/lakeview-records-api/pkg/database"
	"github.com/noah-isme/lakeview-records-api/pkg/jobs"
	"github.com/noah-isme/lakeview-records-api/pkg/logger"
)

// @title Lakeview Records API
// @version 0.1.0
// @description Academic progression engine for an institutional records platform
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	resultRepo := repository.NewResultRepository(db)
	gpaRepo := repository.NewGPARepository(db)

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Eligibility.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, eligibility cache disabled", "error", err)
			cfg.Eligibility.CacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Eligibility.CacheTTL, logr, cfg.Eligibility.CacheEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifications *service.NotificationService
	if cfg.Notifications.Enabled {
		notifications = service.NewNotificationService(service.NewLogSink(logr), jobs.Options{
			Workers: cfg.Notifications.Workers,
			Buffer:  cfg.Notifications.BufferSize,
			Retries: cfg.Notifications.MaxRetries,
			Logger:  logr,
		}, logr)
		notifications.Start(ctx)
		defer notifications.Stop()
	}

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lakeview-records-api",
	})
	sessionSvc := service.NewSessionService(sessionRepo, cacheSvc, validate, logr)
	levelSvc := service.NewLevelService(levelRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, departmentRepo, levelRepo, sessionRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, resultRepo, gpaRepo, logr)
	gradingSvc := service.NewGradingService(resultRepo, gpaRepo, studentRepo, courseRepo, metrics, notifications, validate, logr)
	exportSvc := service.NewExportService(gradingSvc, courseRepo, logr)
	eligibilitySvc := service.NewEligibilityService(courseRepo, studentRepo, sessionRepo, registrationRepo, cacheSvc, cfg.Eligibility.CacheTTL, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, courseRepo, studentRepo, sessionRepo, eligibilitySvc, notifications, metrics, validate, logr, cfg.Academic.EnforceRegistrationDeadline, cfg.Academic.MaxSemesterCredits)
	advancementSvc := service.NewAdvancementService(studentRepo, levelRepo, sessionRepo, notifications, metrics, logr)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logr,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,

		AuthService:    authSvc,
		MetricsService: metrics,
		UserRepo:       userRepo,

		Auth:          handler.NewAuthHandler(authSvc),
		Sessions:      handler.NewSessionHandler(sessionSvc),
		Levels:        handler.NewLevelHandler(levelSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Results:       handler.NewResultHandler(gradingSvc, exportSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc, studentSvc),
		Eligibility:   handler.NewEligibilityHandler(eligibilitySvc, studentSvc),
		Advancement:   handler.NewAdvancementHandler(advancementSvc),
		Metrics:       handler.NewMetricsHandler(metrics),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
