package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/logging"
	"github.com/irfndi/kpi-forecast-go/internal/middleware"
	"github.com/irfndi/kpi-forecast-go/internal/models"
	"github.com/irfndi/kpi-forecast-go/internal/services"
	"github.com/irfndi/kpi-forecast-go/internal/utils"
)

// ForecastHandler serves the prediction and pattern analysis endpoints.
type ForecastHandler struct {
	service *services.ForecastService
	logger  logging.Logger
}

// EndpointInfo describes one prediction endpoint for GET /api/v1/endpoints.
type EndpointInfo struct {
	Method         string   `json:"method"`
	Path           string   `json:"path"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
	OptionalFields []string `json:"optional_fields,omitempty"`
}

// EndpointsResponse lists the prediction endpoints and the engine limits.
type EndpointsResponse struct {
	Endpoints           []EndpointInfo `json:"endpoints"`
	MaxHorizon          int            `json:"max_horizon"`
	DefaultHorizon      int            `json:"default_horizon"`
	MinPoints           int            `json:"min_points"`
	RegressionAvailable bool           `json:"regression_available"`
}

func NewForecastHandler(service *services.ForecastService, logger logging.Logger) *ForecastHandler {
	if logger == nil {
		logger = logging.NewStandardLogger("info", "")
	}
	return &ForecastHandler{service: service, logger: logger}
}

// PredictMetric handles POST /api/v1/predict/metric.
func (h *ForecastHandler) PredictMetric(c *gin.Context) {
	var req models.HistoricalSeries
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	middleware.AddSpanAttribute(c, "kpi.metric_name", req.MetricName)

	result, err := h.service.Forecast(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "predict", req.MetricName, err)
		return
	}
	result.Timestamps = req.Timestamps

	h.logger.LogForecastEvent(result.MetricName, map[string]interface{}{
		"operation":  "predict",
		"request_id": middleware.GetRequestID(c),
		"points":     len(req.Values),
		"horizon":    len(result.Predictions),
		"strategy":   result.Strategy,
		"confidence": result.ConfidenceLevel,
		"trend":      result.Trend,
	})

	c.JSON(http.StatusOK, result)
}

// AnalyzePattern handles POST /api/v1/analyze/pattern.
func (h *ForecastHandler) AnalyzePattern(c *gin.Context) {
	var req models.HistoricalSeries
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	middleware.AddSpanAttribute(c, "kpi.metric_name", req.MetricName)

	report, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "analyze", req.MetricName, err)
		return
	}

	h.logger.LogForecastEvent(report.MetricName, map[string]interface{}{
		"operation":  "analyze",
		"request_id": middleware.GetRequestID(c),
		"points":     len(req.Values),
		"trend":      report.Trend,
		"volatility": report.VolatilityLevel,
	})

	c.JSON(http.StatusOK, report)
}

// AnalyzeBulk handles POST /api/v1/analyze/bulk.
func (h *ForecastHandler) AnalyzeBulk(c *gin.Context) {
	var req models.BulkSeries
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	middleware.AddSpanAttribute(c, "kpi.metrics", len(req.Data))

	result, err := h.service.AnalyzeBulk(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "analyze_bulk", "", err)
		return
	}
	result.Timestamps = req.Timestamps

	c.JSON(http.StatusOK, result)
}

// ListEndpoints handles GET /api/v1/endpoints.
func (h *ForecastHandler) ListEndpoints(c *gin.Context) {
	cfg := h.service.Config()
	c.JSON(http.StatusOK, EndpointsResponse{
		Endpoints: []EndpointInfo{
			{
				Method:         http.MethodPost,
				Path:           "/api/v1/predict/metric",
				Description:    "Forecast the next periods of a metric from its history",
				RequiredFields: []string{"metric_name", "historical_values"},
				OptionalFields: []string{"periods_ahead", "timestamps"},
			},
			{
				Method:         http.MethodPost,
				Path:           "/api/v1/analyze/pattern",
				Description:    "Classify trend, volatility and recent shift of a metric",
				RequiredFields: []string{"metric_name", "historical_values"},
				OptionalFields: []string{"timestamps"},
			},
			{
				Method:         http.MethodPost,
				Path:           "/api/v1/analyze/bulk",
				Description:    "Analyze several metrics in one request",
				RequiredFields: []string{"data"},
				OptionalFields: []string{"timestamps"},
			},
		},
		MaxHorizon:          cfg.MaxHorizon,
		DefaultHorizon:      cfg.DefaultHorizon,
		MinPoints:           cfg.MinPoints,
		RegressionAvailable: h.service.RegressionAvailable(),
	})
}

// writeError maps request problems to 400 and everything else to 500.
func (h *ForecastHandler) writeError(c *gin.Context, operation, metricName string, err error) {
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, services.ErrInsufficientData):
		h.logger.WithMetric(metricName).Debug("Request rejected",
			"operation", operation,
			"reason", err.Error(),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		middleware.RecordError(c, err, operation+" failed")
		h.logger.WithRequestID(middleware.GetRequestID(c)).Error("Request failed",
			"operation", operation,
			"metric_name", metricName,
			"error", err.Error(),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
