package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/kpi-forecast-go/internal/api"
	"github.com/irfndi/kpi-forecast-go/internal/cache"
	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/database"
	"github.com/irfndi/kpi-forecast-go/internal/logging"
	"github.com/irfndi/kpi-forecast-go/internal/middleware"
	"github.com/irfndi/kpi-forecast-go/internal/services"
	"github.com/irfndi/kpi-forecast-go/internal/telemetry"
)

const (
	serviceName             = "kpi-forecast-go"
	resourceReportInterval  = 5 * time.Minute
	cacheStatsInterval      = 15 * time.Minute
	gracefulShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry first
	if err := telemetry.Init(ctx, telemetryConfig(cfg)); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	logger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    serviceName,
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logger.Shutdown(shutdownCtx)
	}()
	slog.SetDefault(logger.Logger())

	// Services log through logrus
	logrusLogger := logging.NewServiceLogger(cfg.LogLevel)

	deps := api.Dependencies{
		Security:  cfg.Security,
		Version:   telemetry.ServiceVersion,
		Logger:    logger,
		Resources: services.NewResourceMonitor(logrusLogger),
	}

	var resultCache services.ResultCache
	if cfg.Redis.Enabled {
		var redisClient *database.RedisClient
		policy := services.DefaultRetryPolicies()["redis_connect"]
		err := services.Retry(ctx, logrusLogger, "redis_connect", policy, func(ctx context.Context) error {
			var connErr error
			redisClient, connErr = database.NewRedisConnection(ctx, cfg.Redis, logrusLogger)
			return connErr
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		deps.Redis = redisClient

		if cfg.Cache.Enabled {
			forecastCache := cache.NewRedisForecastCache(redisClient.Client, cfg.Cache.TTLDuration(), logrusLogger)
			startCacheStatsReporting(ctx, forecastCache)
			breaker := services.NewCircuitBreaker("forecast_cache", services.CircuitBreakerConfig{}, logrusLogger)
			resultCache = services.NewCircuitBreakerCache(forecastCache, breaker)
			deps.Cache = forecastCache
			deps.CacheBreaker = breaker
		}
	}

	deps.Service = services.NewForecastService(cfg.Forecast, resultCache, logrusLogger)
	deps.Resources.Start(ctx, resourceReportInterval, func(snapshot services.ResourceSnapshot) {
		logger.LogResourceStats(serviceName, snapshot.Fields())
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, deps, logger)

	// Create HTTP server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(serviceName, telemetry.ServiceVersion, cfg.Server.Port)
		logger.WithService(serviceName).Info("Forecast service ready",
			"regression", deps.Service.RegressionAvailable(),
			"cache", resultCache != nil,
			"auth", cfg.Security.AuthEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	logger.LogShutdown(serviceName, "signal received")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrusLogger.Info("Server exited gracefully")
	return nil
}

func telemetryConfig(cfg *config.Config) telemetry.TelemetryConfig {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Environment = cfg.Environment
	if cfg.Telemetry.Exporter != "" {
		tc.Exporter = cfg.Telemetry.Exporter
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	if cfg.Telemetry.ServiceName != "" {
		tc.ServiceName = cfg.Telemetry.ServiceName
	}
	if cfg.Telemetry.ServiceVersion != "" {
		tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	}
	return tc
}

// newRouter assembles the middleware chain and routes.
func newRouter(cfg *config.Config, deps api.Dependencies, logger logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.TelemetryMiddleware())
	router.Use(middleware.PrometheusMetrics())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	api.SetupRoutes(router, deps)
	return router
}

func startCacheStatsReporting(ctx context.Context, forecastCache *cache.RedisForecastCache) {
	go func() {
		ticker := time.NewTicker(cacheStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				forecastCache.LogStats()
			}
		}
	}()
}
