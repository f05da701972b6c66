package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/models"
)

func linearSeries(start, step float64, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + step*float64(i)
	}
	return values
}

func TestDetectPatterns_LinearGrowth(t *testing.T) {
	summary := DetectPatterns(linearSeries(100, 5, 10), config.DefaultForecastConfig())

	assert.Equal(t, models.TrendIncreasing, summary.Trend)
	assert.InDelta(t, 5.0, summary.Slope, 1e-9)
	assert.InDelta(t, 122.5, summary.Average, 1e-9)
	assert.InDelta(t, 140.0, summary.RecentAverage, 1e-9)
	assert.InDelta(t, 0.1172, summary.Volatility, 1e-4)
	// 0.1172 sits above the 0.1 medium threshold.
	assert.Equal(t, models.VolatilityMedium, summary.VolatilityLevel)
}

func TestDetectPatterns_Constant(t *testing.T) {
	summary := DetectPatterns([]float64{50, 50, 50, 50}, config.DefaultForecastConfig())

	assert.Equal(t, models.TrendStable, summary.Trend)
	assert.InDelta(t, 0.0, summary.Slope, 1e-12)
	assert.Equal(t, 0.0, summary.Volatility)
	assert.Equal(t, models.VolatilityLow, summary.VolatilityLevel)
	assert.Equal(t, 50.0, summary.Average)
	assert.Equal(t, 50.0, summary.RecentAverage)
}

func TestDetectPatterns_Decreasing(t *testing.T) {
	summary := DetectPatterns([]float64{10, 8, 6, 4, 2}, config.DefaultForecastConfig())

	assert.Equal(t, models.TrendDecreasing, summary.Trend)
	assert.InDelta(t, -2.0, summary.Slope, 1e-9)
	assert.Equal(t, models.VolatilityHigh, summary.VolatilityLevel)
	assert.InDelta(t, 4.0, summary.RecentAverage, 1e-9)
}

func TestDetectPatterns_InsufficientData(t *testing.T) {
	for _, values := range [][]float64{nil, {}, {1}, {1, 2}} {
		summary := DetectPatterns(values, config.DefaultForecastConfig())
		assert.Equal(t, models.PatternSummary{
			Trend:           models.TrendUnknown,
			VolatilityLevel: models.VolatilityUnknown,
		}, summary)
	}
}

func TestDetectPatterns_ZeroMean(t *testing.T) {
	summary := DetectPatterns([]float64{0, 0, 0}, config.DefaultForecastConfig())
	assert.Equal(t, 0.0, summary.Volatility)
	assert.Equal(t, models.VolatilityLow, summary.VolatilityLevel)

	summary = DetectPatterns([]float64{-5, 5, -5, 5}, config.DefaultForecastConfig())
	assert.Equal(t, 0.0, summary.Volatility)
}

func TestDetectPatterns_NegativeMeanKeepsSign(t *testing.T) {
	summary := DetectPatterns([]float64{-1, -2, -3}, config.DefaultForecastConfig())

	assert.Equal(t, models.TrendDecreasing, summary.Trend)
	assert.Less(t, summary.Volatility, 0.0)
	assert.Equal(t, models.VolatilityLow, summary.VolatilityLevel)
}

func TestClassifyTrend_AbsoluteThreshold(t *testing.T) {
	tests := []struct {
		slope    float64
		expected string
	}{
		{0.02, models.TrendIncreasing},
		{0.005, models.TrendStable},
		{0.01, models.TrendStable},
		{-0.01, models.TrendStable},
		{-0.011, models.TrendDecreasing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyTrend(tt.slope, config.DefaultTrendSlopeThreshold), "slope %v", tt.slope)
	}
}

func TestClassifyVolatility_Boundaries(t *testing.T) {
	cfg := config.DefaultForecastConfig()

	assert.Equal(t, models.VolatilityLow, classifyVolatility(0.1, cfg))
	assert.Equal(t, models.VolatilityMedium, classifyVolatility(0.1001, cfg))
	assert.Equal(t, models.VolatilityMedium, classifyVolatility(0.3, cfg))
	assert.Equal(t, models.VolatilityHigh, classifyVolatility(0.3001, cfg))
}

func TestDetectPatterns_ThreePointsUsesWholeSeriesForRecent(t *testing.T) {
	summary := DetectPatterns([]float64{3, 6, 9}, config.DefaultForecastConfig())
	assert.InDelta(t, summary.Average, summary.RecentAverage, 1e-9)
}

func TestDetectPatterns_DoesNotMutateInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	snapshot := append([]float64(nil), values...)

	DetectPatterns(values, config.DefaultForecastConfig())
	assert.Equal(t, snapshot, values)
}
