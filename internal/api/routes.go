package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/api/handlers"
	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/logging"
	"github.com/irfndi/kpi-forecast-go/internal/metrics"
	"github.com/irfndi/kpi-forecast-go/internal/middleware"
	"github.com/irfndi/kpi-forecast-go/internal/services"
)

// Dependencies groups what the routes need. Redis, Resources, Cache and
// CacheBreaker may be nil; the admin routes exist only with a cache.
type Dependencies struct {
	Service      *services.ForecastService
	Redis        handlers.RedisChecker
	Resources    *services.ResourceMonitor
	Cache        handlers.CacheAdmin
	CacheBreaker *services.CircuitBreaker
	Security     config.SecurityConfig
	Version      string
	Logger       logging.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Redis, deps.Service, deps.Resources, deps.CacheBreaker, deps.Version)
	forecastHandler := handlers.NewForecastHandler(deps.Service, deps.Logger)

	// Probes and metrics
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	var auth *middleware.AuthMiddleware
	if deps.Security.AuthEnabled() {
		auth = middleware.NewAuthMiddleware(deps.Security.JWTSecret)
		v1.Use(auth.RequireAuth())
	}
	{
		v1.GET("/endpoints", forecastHandler.ListEndpoints)

		predict := v1.Group("/predict")
		{
			predict.POST("/metric", forecastHandler.PredictMetric)
		}

		analyze := v1.Group("/analyze")
		{
			analyze.POST("/pattern", forecastHandler.AnalyzePattern)
			analyze.POST("/bulk", forecastHandler.AnalyzeBulk)
		}
	}

	if deps.Cache != nil {
		cacheHandler := handlers.NewCacheHandler(deps.Cache, deps.Logger, deps.CacheBreaker)
		admin := v1.Group("/admin")
		if auth != nil {
			admin.Use(auth.RequireScope(middleware.ScopeAdmin))
		}
		{
			admin.GET("/cache", cacheHandler.GetCacheStats)
			admin.DELETE("/cache", cacheHandler.ClearCache)
			admin.GET("/circuit-breakers", cacheHandler.GetCircuitBreakerStats)
			admin.POST("/circuit-breakers/:name/reset", cacheHandler.ResetCircuitBreaker)
		}
	}
}
