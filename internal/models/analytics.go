package models

import "time"

// Trend labels produced by the pattern detector.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendUnknown    = "unknown"
)

// Volatility tiers produced by the pattern detector.
const (
	VolatilityLow     = "low"
	VolatilityMedium  = "medium"
	VolatilityHigh    = "high"
	VolatilityUnknown = "unknown"
)

// Confidence tiers attached to a forecast.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// HistoricalSeries is the input of a forecast or pattern analysis.
// Values are in chronological order; index order is treated as time order.
type HistoricalSeries struct {
	MetricName   string    `json:"metric_name" binding:"required"`
	Values       []float64 `json:"historical_values" binding:"required"`
	Timestamps   []string  `json:"timestamps,omitempty"`
	PeriodsAhead int       `json:"periods_ahead,omitempty"`
}

// PatternSummary is the feature summary extracted from a series.
type PatternSummary struct {
	Trend           string  `json:"trend"`
	Slope           float64 `json:"slope"`
	Volatility      float64 `json:"volatility"`
	VolatilityLevel string  `json:"volatility_level"`
	Average         float64 `json:"average"`
	RecentAverage   float64 `json:"recent_average"`
}

// ForecastResult contains the output of a forecasting run.
type ForecastResult struct {
	MetricName      string    `json:"metric_name"`
	CurrentValue    float64   `json:"current_value"`
	Predictions     []float64 `json:"predictions"`
	ConfidenceLevel string    `json:"confidence_level"`
	Trend           string    `json:"trend"`
	Volatility      string    `json:"volatility"`
	Insights        []string  `json:"insights"`
	Strategy        string    `json:"strategy"`
	Timestamps      []string  `json:"timestamps,omitempty"`
}

// PatternReport is the classification-only view of a series.
type PatternReport struct {
	MetricName      string   `json:"metric_name"`
	Trend           string   `json:"trend"`
	Slope           float64  `json:"slope"`
	VolatilityLevel string   `json:"volatility_level"`
	VolatilityValue float64  `json:"volatility_value"`
	Seasonality     string   `json:"seasonality"`
	Average         float64  `json:"average"`
	RecentAverage   float64  `json:"recent_average"`
	Insights        []string `json:"insights"`
}

// BulkSeries carries several metrics that share the same timestamps.
type BulkSeries struct {
	Data       map[string][]float64 `json:"data" binding:"required"`
	Timestamps []string             `json:"timestamps,omitempty"`
}

// BulkPatternReport holds per-metric reports; metrics that could not be
// analyzed are listed in Errors with the reason.
type BulkPatternReport struct {
	Reports     []PatternReport   `json:"reports"`
	Errors      map[string]string `json:"errors,omitempty"`
	Timestamps  []string          `json:"timestamps,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}
