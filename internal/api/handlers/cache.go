package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/cache"
	"github.com/irfndi/kpi-forecast-go/internal/logging"
	"github.com/irfndi/kpi-forecast-go/internal/middleware"
	"github.com/irfndi/kpi-forecast-go/internal/services"
)

// CacheAdmin is satisfied by *cache.RedisForecastCache.
type CacheAdmin interface {
	GetStats() cache.ForecastCacheStats
	Clear(ctx context.Context) error
}

// CacheHandler serves the result cache and circuit breaker admin endpoints.
type CacheHandler struct {
	cache    CacheAdmin
	breakers map[string]*services.CircuitBreaker
	logger   logging.Logger
}

// CacheStatsResponse is the body of GET /api/v1/admin/cache.
type CacheStatsResponse struct {
	Hits            int64                    `json:"hits"`
	Misses          int64                    `json:"misses"`
	Sets            int64                    `json:"sets"`
	Errors          int64                    `json:"errors"`
	HitRate         float64                  `json:"hit_rate"`
	CircuitBreakers map[string]BreakerStatus `json:"circuit_breakers,omitempty"`
}

// CircuitBreakerStatsResponse lists every breaker by name.
type CircuitBreakerStatsResponse struct {
	Breakers map[string]BreakerStatus `json:"breakers"`
	Names    []string                 `json:"names"`
}

// ResetCircuitBreakerResponse represents the response for a reset operation.
type ResetCircuitBreakerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// NewCacheHandler creates the admin handler. cache may be nil when only
// breakers are configured.
func NewCacheHandler(resultCache CacheAdmin, logger logging.Logger, breakers ...*services.CircuitBreaker) *CacheHandler {
	byName := make(map[string]*services.CircuitBreaker, len(breakers))
	for _, cb := range breakers {
		if cb != nil {
			byName[cb.Name()] = cb
		}
	}
	if logger == nil {
		logger = logging.NewStandardLogger("info", "")
	}
	return &CacheHandler{cache: resultCache, breakers: byName, logger: logger}
}

// GetCacheStats handles GET /api/v1/admin/cache.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	var response CacheStatsResponse
	if h.cache != nil {
		stats := h.cache.GetStats()
		response.Hits, response.Misses, response.Sets, response.Errors = stats.Hits, stats.Misses, stats.Sets, stats.Errors
		if lookups := stats.Hits + stats.Misses; lookups > 0 {
			response.HitRate = float64(stats.Hits) / float64(lookups)
		}
	}
	response.CircuitBreakers = h.breakerStatuses()

	c.JSON(http.StatusOK, response)
}

// ClearCache handles DELETE /api/v1/admin/cache.
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result cache is disabled"})
		return
	}

	ctx, span := middleware.StartSpan(c, "cache.clear")
	defer span.End()

	start := time.Now()
	if err := h.cache.Clear(ctx); err != nil {
		middleware.RecordError(c, err, "cache clear failed")
		h.logger.WithError(err).Error("Failed to clear forecast cache",
			"request_id", middleware.GetRequestID(c),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}

	h.logger.WithOperation("cache_clear").Info("Forecast cache cleared",
		"request_id", middleware.GetRequestID(c),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "cache cleared"})
}

// GetCircuitBreakerStats handles GET /api/v1/admin/circuit-breakers.
func (h *CacheHandler) GetCircuitBreakerStats(c *gin.Context) {
	statuses := h.breakerStatuses()
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	c.JSON(http.StatusOK, CircuitBreakerStatsResponse{Breakers: statuses, Names: names})
}

// ResetCircuitBreaker handles POST /api/v1/admin/circuit-breakers/:name/reset.
func (h *CacheHandler) ResetCircuitBreaker(c *gin.Context) {
	name := c.Param("name")
	cb, ok := h.breakers[name]
	if !ok {
		c.JSON(http.StatusNotFound, ResetCircuitBreakerResponse{
			Success: false,
			Message: "circuit breaker not found",
			Name:    name,
		})
		return
	}

	previous := cb.GetState()
	cb.Reset()
	h.logger.WithComponent("circuit_breaker").Info("Circuit breaker reset",
		"name", name,
		"previous_state", previous.String(),
		"request_id", middleware.GetRequestID(c),
	)

	c.JSON(http.StatusOK, ResetCircuitBreakerResponse{
		Success: true,
		Message: "circuit breaker reset successfully",
		Name:    name,
	})
}

func (h *CacheHandler) breakerStatuses() map[string]BreakerStatus {
	if len(h.breakers) == 0 {
		return nil
	}
	statuses := make(map[string]BreakerStatus, len(h.breakers))
	for name, cb := range h.breakers {
		statuses[name] = breakerStatus(cb)
	}
	return statuses
}
