package services

import (
	"errors"
	"fmt"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/models"
)

// ErrInsufficientData is returned when a series is too short to analyze or forecast.
var ErrInsufficientData = errors.New("insufficient data")

// ForecastStrategy identifies which prediction path produced a forecast.
type ForecastStrategy int

const (
	StrategyHeuristic ForecastStrategy = iota
	StrategyRegression
)

func (s ForecastStrategy) String() string {
	switch s {
	case StrategyRegression:
		return "regression"
	default:
		return "heuristic"
	}
}

// SelectStrategy picks the prediction path for a series of the given length.
func SelectStrategy(points int, backendAvailable bool, minRegressionPoints int) ForecastStrategy {
	if !backendAvailable || points < minRegressionPoints {
		return StrategyHeuristic
	}
	return StrategyRegression
}

// RegressorFactory builds a fresh, unfitted regressor for one forecast.
type RegressorFactory func() Regressor

// Forecaster produces multi-step forecasts from a single series. It holds no
// per-request state and is safe for concurrent use.
type Forecaster struct {
	cfg          config.ForecastConfig
	newRegressor RegressorFactory
}

// NewForecaster creates a forecaster backed by the gradient boosting regressor,
// or by the heuristic only when cfg.RegressionEnabled is false.
func NewForecaster(cfg config.ForecastConfig) *Forecaster {
	var factory RegressorFactory
	if cfg.RegressionEnabled {
		factory = func() Regressor {
			return NewGradientBoostingRegressor(cfg.Estimators, cfg.LearningRate, cfg.MaxDepth)
		}
	}
	return NewForecasterWithRegressor(cfg, factory)
}

// NewForecasterWithRegressor creates a forecaster with a custom regression
// backend. A nil factory means the backend is unavailable.
func NewForecasterWithRegressor(cfg config.ForecastConfig, factory RegressorFactory) *Forecaster {
	return &Forecaster{cfg: cfg, newRegressor: factory}
}

// RegressionAvailable reports whether a regression backend is configured.
func (f *Forecaster) RegressionAvailable() bool {
	return f.newRegressor != nil
}

// Config returns the engine tunables.
func (f *Forecaster) Config() config.ForecastConfig {
	return f.cfg
}

// Forecast predicts series.PeriodsAhead values past the end of the series.
// A zero horizon uses the configured default.
func (f *Forecaster) Forecast(series models.HistoricalSeries) (*models.ForecastResult, error) {
	values := series.Values
	if len(values) < f.cfg.MinPoints {
		return nil, fmt.Errorf("need at least %d historical data points for prediction, got %d: %w",
			f.cfg.MinPoints, len(values), ErrInsufficientData)
	}

	horizon := series.PeriodsAhead
	if horizon == 0 {
		horizon = f.cfg.DefaultHorizon
	}
	if horizon < 1 {
		return nil, fmt.Errorf("periods_ahead must be positive, got %d", horizon)
	}

	pattern := DetectPatterns(values, f.cfg)
	strategy := SelectStrategy(len(values), f.RegressionAvailable(), f.cfg.RegressionMinPoints)

	var (
		predictions []float64
		confidence  string
	)
	if strategy == StrategyRegression {
		predictions, confidence = f.regressionForecast(values, horizon, pattern)
	} else {
		predictions, confidence = heuristicForecast(values, horizon)
	}

	last := values[len(values)-1]
	return &models.ForecastResult{
		MetricName:      series.MetricName,
		CurrentValue:    last,
		Predictions:     roundSeries(predictions, 2),
		ConfidenceLevel: confidence,
		Trend:           pattern.Trend,
		Volatility:      pattern.VolatilityLevel,
		Insights:        forecastInsights(pattern, predictions[0], last, f.cfg.ShiftThreshold),
		Strategy:        strategy.String(),
		Timestamps:      series.Timestamps,
	}, nil
}

// heuristicForecast extends the last value along the endpoint slope.
func heuristicForecast(values []float64, horizon int) ([]float64, string) {
	slope := endpointSlope(values)
	last := values[len(values)-1]

	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = clampNonNegative(last + slope*float64(i+1))
	}
	return predictions, models.ConfidenceLow
}

func (f *Forecaster) regressionForecast(values []float64, horizon int, pattern models.PatternSummary) ([]float64, string) {
	features, labels := buildTrainingSet(values, f.cfg.WindowSize)
	if len(features) == 0 {
		return constantForecast(calculateMeanFloat64(values), horizon), models.ConfidenceLow
	}

	model := f.newRegressor()
	if err := model.Fit(features, labels); err != nil {
		return constantForecast(calculateMeanFloat64(values), horizon), models.ConfidenceLow
	}

	window := make([]float64, f.cfg.WindowSize)
	copy(window, values[len(values)-f.cfg.WindowSize:])

	predictions := make([]float64, horizon)
	for i := range predictions {
		raw := model.Predict(window)
		predictions[i] = clampNonNegative(raw)
		// The window advances with the unclamped prediction.
		copy(window, window[1:])
		window[len(window)-1] = raw
	}

	return predictions, regressionConfidence(len(values), pattern.Volatility, f.cfg)
}

// buildTrainingSet slides a window over values: each example maps window
// consecutive points to the point that follows them.
func buildTrainingSet(values []float64, window int) ([][]float64, []float64) {
	if window < 1 || len(values) <= window {
		return nil, nil
	}
	count := len(values) - window
	features := make([][]float64, count)
	labels := make([]float64, count)
	for i := 0; i < count; i++ {
		row := make([]float64, window)
		copy(row, values[i:i+window])
		features[i] = row
		labels[i] = values[i+window]
	}
	return features, labels
}

func regressionConfidence(points int, volatility float64, cfg config.ForecastConfig) string {
	switch {
	case points >= cfg.HighConfidenceMinPoints && volatility < cfg.VolatilityHighThreshold:
		return models.ConfidenceHigh
	case points >= cfg.RegressionMinPoints:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func constantForecast(value float64, horizon int) []float64 {
	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = clampNonNegative(value)
	}
	return predictions
}
