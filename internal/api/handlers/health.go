package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/services"
)

const healthCheckTimeout = 2 * time.Second

// Service states reported by /health.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusDisabled  = "disabled"
	statusAvailable = "available"
	statusBypassed  = "bypassed: circuit open"
)

// RedisChecker is satisfied by *database.RedisClient.
type RedisChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	redis     RedisChecker
	service   *services.ForecastService
	resources *services.ResourceMonitor
	breaker   *services.CircuitBreaker
	version   string
	startTime time.Time
}

type HealthResponse struct {
	Status          string                     `json:"status"`
	Timestamp       time.Time                  `json:"timestamp"`
	Services        map[string]string          `json:"services"`
	CircuitBreakers map[string]BreakerStatus   `json:"circuit_breakers,omitempty"`
	Resources       *services.ResourceSnapshot `json:"resources,omitempty"`
	Version         string                     `json:"version"`
	Uptime          string                     `json:"uptime"`
}

// BreakerStatus is the state and counters of one circuit breaker.
type BreakerStatus struct {
	State string                       `json:"state"`
	Stats services.CircuitBreakerStats `json:"stats"`
}

// NewHealthHandler creates the probe handler. redis, resources and breaker may be nil.
func NewHealthHandler(redis RedisChecker, service *services.ForecastService, resources *services.ResourceMonitor, breaker *services.CircuitBreaker, version string) *HealthHandler {
	return &HealthHandler{
		redis:     redis,
		service:   service,
		resources: resources,
		breaker:   breaker,
		version:   version,
		startTime: time.Now(),
	}
}

func breakerStatus(cb *services.CircuitBreaker) BreakerStatus {
	return BreakerStatus{State: cb.GetState().String(), Stats: cb.GetStats()}
}

// HealthCheck handles GET /health. The engine itself has no dependencies, so
// the service stays up when the cache is unreachable; it only reports degraded.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	svcs := map[string]string{
		"engine":     statusHealthy,
		"regression": statusDisabled,
		"redis":      statusDisabled,
	}
	if h.service.RegressionAvailable() {
		svcs["regression"] = statusAvailable
	}

	overallStatus := statusHealthy
	if err := h.checkRedis(c.Request.Context()); err != nil {
		svcs["redis"] = "unhealthy: " + err.Error()
		overallStatus = statusDegraded
	} else if h.redis != nil {
		svcs["redis"] = statusHealthy
	}

	if h.breaker != nil {
		svcs["cache"] = statusHealthy
		if h.breaker.GetState() == services.Open {
			svcs["cache"] = statusBypassed
			overallStatus = statusDegraded
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  svcs,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
	}
	if h.breaker != nil {
		response.CircuitBreakers = map[string]BreakerStatus{h.breaker.Name(): breakerStatus(h.breaker)}
	}
	if h.resources != nil {
		snapshot, err := h.resources.Sample(c.Request.Context())
		if err != nil {
			snapshot = h.resources.Snapshot()
		}
		response.Resources = &snapshot
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck handles GET /ready. A configured cache must be reachable.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if err := h.checkRedis(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready":    false,
			"services": gin.H{"redis": "not ready"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// LivenessCheck handles GET /live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkRedis(ctx context.Context) error {
	if h.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return h.redis.HealthCheck(ctx)
}
