package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/metrics"
	"github.com/irfndi/kpi-forecast-go/internal/models"
	"github.com/irfndi/kpi-forecast-go/internal/telemetry"
	"github.com/irfndi/kpi-forecast-go/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	opForecast    = "forecast"
	opAnalyze     = "analyze"
	opAnalyzeBulk = "analyze_bulk"
)

// ResultCache stores engine results keyed by their inputs.
type ResultCache interface {
	Key(operation string, parts ...interface{}) (string, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// ForecastService validates requests and runs them through the engine, with
// tracing, metrics, logging and an optional result cache around each call.
type ForecastService struct {
	cfg        config.ForecastConfig
	forecaster *Forecaster
	analyzer   *Analyzer
	cache      ResultCache
	tracer     *telemetry.ForecastTracer
	logger     *logrus.Logger
}

// NewForecastService creates the service. resultCache may be nil.
func NewForecastService(cfg config.ForecastConfig, resultCache ResultCache, logger *logrus.Logger) *ForecastService {
	return NewForecastServiceWithForecaster(NewForecaster(cfg), resultCache, logger)
}

// NewForecastServiceWithForecaster creates the service around a prepared forecaster.
func NewForecastServiceWithForecaster(forecaster *Forecaster, resultCache ResultCache, logger *logrus.Logger) *ForecastService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg := forecaster.Config()
	return &ForecastService{
		cfg:        cfg,
		forecaster: forecaster,
		analyzer:   NewAnalyzer(cfg),
		cache:      resultCache,
		tracer:     telemetry.NewForecastTracer(),
		logger:     logger,
	}
}

// SetTracer replaces the span helper; tests use it with an in-memory recorder.
func (s *ForecastService) SetTracer(tracer *telemetry.ForecastTracer) {
	s.tracer = tracer
}

// RegressionAvailable reports whether forecasts may use the regression backend.
func (s *ForecastService) RegressionAvailable() bool {
	return s.forecaster.RegressionAvailable()
}

// Config returns the engine tunables the service runs with.
func (s *ForecastService) Config() config.ForecastConfig {
	return s.cfg
}

// Forecast validates series and returns its forecast.
func (s *ForecastService) Forecast(ctx context.Context, series models.HistoricalSeries) (*models.ForecastResult, error) {
	ctx, span := s.tracer.TraceOperation(ctx, opForecast, series.MetricName, len(series.Values))
	defer span.End()

	if err := s.validateSeries(series); err != nil {
		s.reject(opForecast, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}
	horizon, err := s.resolveHorizon(series.PeriodsAhead)
	if err != nil {
		s.reject(opForecast, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}
	series.PeriodsAhead = horizon

	key := s.cacheKey(opForecast, series, s.RegressionAvailable(), s.cfg)
	var cached models.ForecastResult
	if s.loadCached(ctx, key, &cached) {
		metrics.RecordForecast(cached.Strategy, cached.ConfidenceLevel)
		s.tracer.RecordCache(span, true)
		return &cached, nil
	}
	s.tracer.RecordCache(span, false)

	start := time.Now()
	result, err := s.forecaster.Forecast(series)
	metrics.ObserveEngine(opForecast, time.Since(start))
	if err != nil {
		s.reject(opForecast, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}

	metrics.RecordForecast(result.Strategy, result.ConfidenceLevel)
	s.tracer.RecordForecast(span, result.Strategy, result.ConfidenceLevel, result.Trend, horizon)
	s.storeCached(ctx, key, result)

	s.logger.WithFields(logrus.Fields{
		"metric_name": result.MetricName,
		"points":      len(series.Values),
		"horizon":     horizon,
		"strategy":    result.Strategy,
		"confidence":  result.ConfidenceLevel,
		"trend":       result.Trend,
	}).Info("Forecast generated")

	return result, nil
}

// Analyze validates series and returns its pattern report.
func (s *ForecastService) Analyze(ctx context.Context, series models.HistoricalSeries) (*models.PatternReport, error) {
	ctx, span := s.tracer.TraceOperation(ctx, opAnalyze, series.MetricName, len(series.Values))
	defer span.End()

	if err := s.validateSeries(series); err != nil {
		s.reject(opAnalyze, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}

	// The horizon does not influence analysis.
	series.PeriodsAhead = 0
	key := s.cacheKey(opAnalyze, series, s.cfg)
	var cached models.PatternReport
	if s.loadCached(ctx, key, &cached) {
		metrics.RecordAnalysis(cached.Trend)
		s.tracer.RecordCache(span, true)
		return &cached, nil
	}
	s.tracer.RecordCache(span, false)

	start := time.Now()
	report, err := s.analyzer.Analyze(series)
	metrics.ObserveEngine(opAnalyze, time.Since(start))
	if err != nil {
		s.reject(opAnalyze, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}

	metrics.RecordAnalysis(report.Trend)
	s.tracer.RecordAnalysis(span, report.Trend, report.VolatilityLevel)
	s.storeCached(ctx, key, report)

	s.logger.WithFields(logrus.Fields{
		"metric_name": report.MetricName,
		"points":      len(series.Values),
		"trend":       report.Trend,
		"volatility":  report.VolatilityLevel,
	}).Info("Pattern analysis completed")

	return report, nil
}

// AnalyzeBulk analyzes several metrics in one call. Per-metric failures are
// reported in the result; only an empty or malformed batch is an error.
func (s *ForecastService) AnalyzeBulk(ctx context.Context, bulk models.BulkSeries) (*models.BulkPatternReport, error) {
	_, span := s.tracer.TraceOperation(ctx, opAnalyzeBulk, "", len(bulk.Data))
	defer span.End()

	if len(bulk.Data) == 0 {
		err := utils.NewFieldValidationError("data", "at least one metric is required")
		s.reject(opAnalyzeBulk, err)
		s.tracer.RecordError(span, err)
		return nil, err
	}
	for name, values := range bulk.Data {
		if strings.TrimSpace(name) == "" {
			err := utils.NewFieldValidationError("data", "metric names must not be empty")
			s.reject(opAnalyzeBulk, err)
			s.tracer.RecordError(span, err)
			return nil, err
		}
		if err := validateValues(values); err != nil {
			s.reject(opAnalyzeBulk, err)
			s.tracer.RecordError(span, err)
			return nil, err
		}
	}

	start := time.Now()
	result := s.analyzer.AnalyzeBulk(bulk)
	metrics.ObserveEngine(opAnalyzeBulk, time.Since(start))

	for _, report := range result.Reports {
		metrics.RecordAnalysis(report.Trend)
	}

	s.logger.WithFields(logrus.Fields{
		"metrics":  len(bulk.Data),
		"analyzed": len(result.Reports),
		"failed":   len(result.Errors),
	}).Info("Bulk pattern analysis completed")

	return result, nil
}

func (s *ForecastService) validateSeries(series models.HistoricalSeries) error {
	if strings.TrimSpace(series.MetricName) == "" {
		return utils.NewFieldValidationError("metric_name", "is required")
	}
	return validateValues(series.Values)
}

func validateValues(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return utils.NewValidationErrorf("historical_values[%d] must be a finite number", i)
		}
	}
	return nil
}

// resolveHorizon applies the default horizon and enforces the maximum.
func (s *ForecastService) resolveHorizon(requested int) (int, error) {
	if requested == 0 {
		return s.cfg.DefaultHorizon, nil
	}
	if requested < 1 || requested > s.cfg.MaxHorizon {
		return 0, utils.NewValidationErrorf("periods_ahead must be between 1 and %d, got %d", s.cfg.MaxHorizon, requested)
	}
	return requested, nil
}

func (s *ForecastService) reject(operation string, err error) {
	reason := "error"
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &validationErr):
		reason = "validation"
	case errors.Is(err, ErrInsufficientData):
		reason = "insufficient_data"
	}
	metrics.RecordRejected(operation, reason)
	s.logger.WithFields(logrus.Fields{
		"operation": operation,
		"reason":    reason,
	}).WithError(err).Warn("Request rejected")
}

func (s *ForecastService) cacheKey(operation string, parts ...interface{}) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Key(operation, parts...)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build cache key")
		return ""
	}
	return key
}

func (s *ForecastService) loadCached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || key == "" {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	switch {
	case errors.Is(err, ErrCircuitOpen):
		metrics.RecordCacheResult(metrics.CacheBypass)
		return false
	case err != nil:
		metrics.RecordCacheResult(metrics.CacheError)
		s.logger.WithError(err).Warn("Forecast cache read failed; computing result")
		return false
	case found:
		metrics.RecordCacheResult(metrics.CacheHit)
		return true
	default:
		metrics.RecordCacheResult(metrics.CacheMiss)
		return false
	}
}

func (s *ForecastService) storeCached(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil && !errors.Is(err, ErrCircuitOpen) {
		s.logger.WithError(err).Warn("Forecast cache write failed")
	}
}
