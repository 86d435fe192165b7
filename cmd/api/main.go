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
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "github.com/noah-isme/alumni-survey-api/api/swagger"
	"github.com/noah-isme/alumni-survey-api/internal/handler"
	"github.com/noah-isme/alumni-survey-api/internal/middleware"
	"github.com/noah-isme/alumni-survey-api/internal/repository"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/migrations"
	"github.com/noah-isme/alumni-survey-api/pkg/cache"
	"github.com/noah-isme/alumni-survey-api/pkg/config"
	"github.com/noah-isme/alumni-survey-api/pkg/database"
	"github.com/noah-isme/alumni-survey-api/pkg/logger"
)

// @title Alumni Survey API
// @version 1.0.0
// @description Alumni records, tracer surveys and the alumni board.
// @BasePath /api
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

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, migrations.FS, database.MigrateUp); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("aggregate cache disabled", zap.Error(err))
		redisClient = nil
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret: cfg.Token.Secret,
		Salt:   cfg.Token.Salt,
		MaxAge: cfg.Token.MaxAge,
	})
	if err != nil {
		logr.Fatal("failed to init token service", zap.Error(err))
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	adminRepo := repository.NewAdminRepository(db)
	alumniRepo := repository.NewAlumniRepository(db)
	headRepo := repository.NewProgramHeadRepository(db, logr)
	programRepo := repository.NewProgramRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	changeRepo := repository.NewChangeRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	mirrorRepo := repository.NewMirrorRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Aggregates.CacheTTL, logr, cfg.Aggregates.CacheEnabled && redisClient != nil)
	mirrorSvc := service.NewMirrorService(mirrorRepo, headRepo, metrics, service.MirrorConfig{
		Enabled:           cfg.Mirror.Enabled,
		Workers:           cfg.Mirror.Workers,
		MaxRetries:        cfg.Mirror.MaxRetries,
		RetryDelay:        cfg.Mirror.RetryDelay,
		ReconcileInterval: cfg.Mirror.ReconcileInterval,
	}, logr)

	authSvc := service.NewAuthService(adminRepo, alumniRepo, headRepo, tokens, logr)
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	alumniSvc := service.NewAlumniService(alumniRepo, validate, logr)
	headSvc := service.NewProgramHeadService(headRepo, mirrorSvc, validate, logr)
	programSvc := service.NewProgramService(programRepo, headRepo, validate, logr)
	surveySvc := service.NewSurveyService(surveyRepo, cacheSvc, validate, logr)
	aggregateSvc := service.NewAggregateService(surveyRepo, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(surveySvc, aggregateSvc, logr, nil, nil)
	changeSvc := service.NewChangeRequestService(changeRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr)
	postSvc := service.NewPostService(postRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mirrorSvc.Start(ctx)
	defer mirrorSvc.Stop()

	loginLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.LoginPerSecond), cfg.RateLimit.LoginBurst)
	go loginLimiter.Cleanup(ctx, time.Minute)

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:        cfg.APIPrefix,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		EnableDocs:       cfg.Env != config.EnvProduction,
		TrustActingAdmin: cfg.Auth.TrustActingAdmin,
		Logger:           logr,
		Metrics:          metrics,
		Tokens:           tokens,
		LoginLimit:       loginLimiter,
		ReadyChecks:      checks,
		Auth:             handler.NewAuthHandler(authSvc),
		Admins:           handler.NewAdminHandler(adminSvc),
		Alumni:           handler.NewAlumniHandler(alumniSvc),
		ProgramHeads:     handler.NewProgramHeadHandler(headSvc),
		Programs:         handler.NewProgramHandler(programSvc),
		Surveys:          handler.NewSurveyHandler(surveySvc, aggregateSvc, exportSvc),
		ChangeRequests:   handler.NewChangeRequestHandler(changeSvc),
		Notifications:    handler.NewNotificationHandler(notificationSvc),
		Posts:            handler.NewPostHandler(postSvc),
		Mirror:           handler.NewMirrorHandler(mirrorSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
