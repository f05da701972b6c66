package services

import (
	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/models"
)

// recentWindow is the number of trailing observations averaged into RecentAverage.
const recentWindow = 3

// DetectPatterns extracts trend and volatility features from a chronological series.
//
// A series shorter than cfg.MinPoints yields a sentinel summary with trend and
// volatility "unknown" and zeroed numbers; callers must check the length before
// treating the summary as real data.
func DetectPatterns(values []float64, cfg config.ForecastConfig) models.PatternSummary {
	if len(values) < cfg.MinPoints {
		return models.PatternSummary{
			Trend:           models.TrendUnknown,
			VolatilityLevel: models.VolatilityUnknown,
		}
	}

	slope := leastSquaresSlope(values)
	mean, volatility := coefficientOfVariation(values)

	return models.PatternSummary{
		Trend:           classifyTrend(slope, cfg.TrendSlopeThreshold),
		Slope:           slope,
		Volatility:      volatility,
		VolatilityLevel: classifyVolatility(volatility, cfg),
		Average:         mean,
		RecentAverage:   trailingMean(values, recentWindow),
	}
}

// classifyTrend compares the slope against an absolute threshold, so the label
// depends on the metric's scale.
func classifyTrend(slope, threshold float64) string {
	switch {
	case slope > threshold:
		return models.TrendIncreasing
	case slope < -threshold:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func classifyVolatility(ratio float64, cfg config.ForecastConfig) string {
	switch {
	case ratio > cfg.VolatilityHighThreshold:
		return models.VolatilityHigh
	case ratio > cfg.VolatilityMediumThreshold:
		return models.VolatilityMedium
	default:
		return models.VolatilityLow
	}
}
