package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsync "github.com/booksync/backend/internal/application/sync"
	"github.com/booksync/backend/internal/infrastructure/cache"
	"github.com/booksync/backend/internal/infrastructure/config"
	"github.com/booksync/backend/internal/infrastructure/connectors"
	"github.com/booksync/backend/internal/infrastructure/logger"
	"github.com/booksync/backend/internal/infrastructure/persistence"
	"github.com/booksync/backend/internal/infrastructure/scheduler"
	"github.com/booksync/backend/internal/infrastructure/synclock"
	"github.com/booksync/backend/internal/infrastructure/telemetry"
	"github.com/booksync/backend/internal/interfaces/http/handler"
	"github.com/booksync/backend/internal/interfaces/http/middleware"
	"github.com/booksync/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting syncd",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracer provider: %w", err)
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init meter provider: %w", err)
	}

	// Database
	db, err := persistence.NewDatabaseWithZap(&cfg.Database, log, cfg.Database.LogLevel)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled
	if err := telemetry.NewDBTracingPlugin(dbTracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
		return fmt.Errorf("register database tracing: %w", err)
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	// Repositories
	profileRepo := persistence.NewGormSyncProfileRepository(db.DB)
	mappingRepo := persistence.NewGormExternalMappingRepository(db.DB)
	ledgerRepo := persistence.NewGormReconciliationErrorRepository(db.DB)
	accountRepo := persistence.NewGormIntegrationAccountRepository(db.DB)
	loader := persistence.NewGormSyncedRecordLoader(db.DB, mappingRepo, profileRepo, log)

	// Connector registry
	registry := connectors.NewRegistry()
	err = connectors.RegisterQuickBooks(registry, connectors.QuickBooksConfig{
		RequestTimeout: cfg.Sync.ExtractTimeout,
	}, loader, log)
	if err != nil {
		return fmt.Errorf("register quickbooks connectors: %w", err)
	}

	// Sync engine
	statusStore := cache.NewRedisSyncStatusStore(redisClient, "")
	orchestrator := appsync.NewOrchestrator(profileRepo, statusStore, log)
	syncService := appsync.NewService(profileRepo, registry, mappingRepo, ledgerRepo, accountRepo, orchestrator, log)

	schedulerCfg := scheduler.SyncSchedulerConfig{
		Enabled:         true,
		Workers:         cfg.Sync.Workers,
		QueueSize:       cfg.Sync.QueueSize,
		JobTimeout:      cfg.Sync.JobTimeout,
		LockTTL:         cfg.Sync.LockTTL,
		ContentionDelay: cfg.Sync.ContentionDelay,
	}
	syncMetrics, err := telemetry.NewSyncMetrics()
	if err != nil {
		return fmt.Errorf("init sync metrics: %w", err)
	}
	executor := scheduler.NewOrchestratedSyncExecutor(syncService, log).WithMetrics(syncMetrics)

	syncScheduler, err := scheduler.NewSyncScheduler(
		schedulerCfg,
		executor,
		synclock.NewRedisSyncLock(redisClient),
		log,
	)
	if err != nil {
		return fmt.Errorf("init sync scheduler: %w", err)
	}
	if err := syncScheduler.Start(ctx); err != nil {
		return fmt.Errorf("start sync scheduler: %w", err)
	}

	cronTrigger := scheduler.NewSyncCronTrigger(scheduler.SyncCronTriggerConfig{
		CheckInterval: cfg.Sync.CheckInterval,
		SyncInterval:  cfg.Sync.SyncInterval,
	}, syncScheduler, profileRepo, log)
	if err := cronTrigger.Start(ctx); err != nil {
		return fmt.Errorf("start cron trigger: %w", err)
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	if cfg.HTTP.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitPerMinute, time.Minute)
		engine.Use(middleware.RateLimit(limiter))
	}
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	syncHandler := handler.NewSyncHandler(syncScheduler, profileRepo, ledgerRepo, statusStore, log)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(syncHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := cronTrigger.Stop(shutdownCtx); err != nil {
		log.Error("Cron trigger shutdown failed", zap.Error(err))
	}
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Sync scheduler shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
	return nil
}
