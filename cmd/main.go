package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"zapbook/internal/batch"
	"zapbook/internal/caching"
	"zapbook/internal/config"
	"zapbook/internal/handlers"
	"zapbook/internal/jobs"
	"zapbook/internal/jobs/background"
	"zapbook/internal/metrics"
	"zapbook/internal/platform"
	"zapbook/internal/repositories"
	"zapbook/internal/services"
	"zapbook/pkg/database"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.DefaultEngineConfig()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		cfg, err = config.LoadEngineConfig(path)
		if err != nil {
			logger.Fatal("failed to load config", zap.String("path", path), zap.Error(err))
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}
	pool, err := database.NewPool(context.Background(), databaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			redisDB = n
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"

	archiveSvc, err := services.NewArchiveService(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		logger.Fatal("failed to initialize archive service", zap.Error(err))
	}
	if err := archiveSvc.EnsureBucketExists(context.Background()); err != nil {
		logger.Warn("archive bucket check failed", zap.Error(err))
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)
	conversationRepo := repositories.NewConversationRepo(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	serviceRepo := repositories.NewServiceRepo(pool)
	snapshotRepo := repositories.NewTenantSnapshotRepo(pool)
	platformRepo := repositories.NewPlatformSnapshotRepo(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB, logger)

	// Core engine
	perMessage, perSession, infraMonthly := cfg.CostDecimals()
	calculator := metrics.NewCalculator(appointmentRepo, conversationRepo, customerRepo, serviceRepo,
		metrics.CostRates{
			PerMessageUSD:   perMessage,
			PerSessionUSD:   perSession,
			InfraMonthlyUSD: infraMonthly,
		}, logger)
	aggregator := platform.NewAggregator(snapshotRepo, platformRepo, tenantRepo, cfg, logger)
	validator := platform.NewValidator(snapshotRepo, platformRepo, logger)
	orchestrator := batch.NewOrchestrator(
		tenantRepo, appointmentRepo, snapshotRepo,
		calculator, aggregator, validator, cfg, logger,
		caching.NewSink(cacheSvc, logger),
		services.NewArchiveSink(archiveSvc),
	)

	// Scheduled daily run
	scheduler, err := background.NewJobScheduler(orchestrator, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create job scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Async recompute queue
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	recomputer := jobs.NewRecomputer(tenantRepo, appointmentRepo, snapshotRepo, calculator, cacheSvc, logger)
	asynqServer := asynq.NewServer(redisOpt, asynq.Config{Concurrency: cfg.Batch.Concurrency})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeRecomputeTenant, recomputer.HandleRecomputeTenant)
	go func() {
		if err := asynqServer.Run(mux); err != nil {
			logger.Fatal("asynq server stopped", zap.Error(err))
		}
	}()
	defer asynqServer.Shutdown()

	// HTTP surface
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.Readiness)

	metricsHandlers := handlers.NewMetricsHandlers(orchestrator, snapshotRepo, platformRepo, cacheSvc, asynqClient, logger)
	metricsHandlers.RegisterRoutes(e.Group("/v1"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil {
			logger.Info("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
