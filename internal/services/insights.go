package services

import (
	"fmt"

	"github.com/irfndi/kpi-forecast-go/internal/models"
)

const (
	seasonalityTooShort   = "Not detected (need more data)"
	seasonalityNeedsCycle = "Analysis requires 12+ periods"
)

// forecastInsights builds the forecast messages in a fixed order: trend,
// volatility warning, then the shift between the first prediction and the last value.
func forecastInsights(pattern models.PatternSummary, firstPrediction, last, shift float64) []string {
	insights := make([]string, 0, 3)

	switch pattern.Trend {
	case models.TrendIncreasing:
		insights = append(insights, fmt.Sprintf("📈 Upward trend detected with slope %.4f", pattern.Slope))
	case models.TrendDecreasing:
		insights = append(insights, fmt.Sprintf("📉 Downward trend detected with slope %.4f", pattern.Slope))
	default:
		insights = append(insights, "➡️ Metric appears stable")
	}

	if pattern.VolatilityLevel == models.VolatilityHigh {
		insights = append(insights, "⚠️ High volatility detected - predictions may be less reliable")
	}

	switch {
	case firstPrediction > last*(1+shift):
		insights = append(insights, "🚀 Significant growth predicted")
	case firstPrediction < last*(1-shift):
		insights = append(insights, "⚠️ Significant decline predicted")
	}

	return insights
}

func analysisInsights(pattern models.PatternSummary, recentShift float64) []string {
	insights := make([]string, 0, 3)

	switch pattern.Trend {
	case models.TrendIncreasing:
		insights = append(insights, fmt.Sprintf("✅ Positive trend: Metric is growing at %.4f per period", pattern.Slope))
	case models.TrendDecreasing:
		insights = append(insights, fmt.Sprintf("⚠️ Negative trend: Metric is declining at %.4f per period", pattern.Slope))
	default:
		insights = append(insights, "➡️ Stable: No significant trend detected")
	}

	switch pattern.VolatilityLevel {
	case models.VolatilityHigh:
		insights = append(insights, "📊 High volatility: Metric shows significant fluctuation")
	case models.VolatilityLow:
		insights = append(insights, "📊 Low volatility: Metric is relatively stable")
	}

	switch {
	case pattern.RecentAverage > pattern.Average*(1+recentShift):
		insights = append(insights, "🔥 Recent performance is above historical average")
	case pattern.RecentAverage < pattern.Average*(1-recentShift):
		insights = append(insights, "⚠️ Recent performance is below historical average")
	}

	return insights
}

func seasonalityNote(points, minPoints int) string {
	if points < minPoints {
		return seasonalityTooShort
	}
	return seasonalityNeedsCycle
}
