package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/models"
)

// Analyzer classifies series without forecasting them.
type Analyzer struct {
	cfg config.ForecastConfig
}

func NewAnalyzer(cfg config.ForecastConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze reports the trend, volatility and recent-vs-average behaviour of a series.
func (a *Analyzer) Analyze(series models.HistoricalSeries) (*models.PatternReport, error) {
	if len(series.Values) < a.cfg.MinPoints {
		return nil, fmt.Errorf("need at least %d historical data points for analysis, got %d: %w",
			a.cfg.MinPoints, len(series.Values), ErrInsufficientData)
	}

	pattern := DetectPatterns(series.Values, a.cfg)

	return &models.PatternReport{
		MetricName:      series.MetricName,
		Trend:           pattern.Trend,
		Slope:           roundTo(pattern.Slope, 4),
		VolatilityLevel: pattern.VolatilityLevel,
		VolatilityValue: roundTo(pattern.Volatility, 4),
		Seasonality:     seasonalityNote(len(series.Values), a.cfg.SeasonalityMinPoints),
		Average:         roundTo(pattern.Average, 2),
		RecentAverage:   roundTo(pattern.RecentAverage, 2),
		Insights:        analysisInsights(pattern, a.cfg.RecentShiftThreshold),
	}, nil
}

// AnalyzeBulk analyzes each metric independently, in metric-name order.
// Metrics that fail are recorded in Errors and do not fail the batch.
func (a *Analyzer) AnalyzeBulk(bulk models.BulkSeries) *models.BulkPatternReport {
	names := make([]string, 0, len(bulk.Data))
	for name := range bulk.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &models.BulkPatternReport{
		Reports:     make([]models.PatternReport, 0, len(names)),
		Timestamps:  bulk.Timestamps,
		GeneratedAt: time.Now().UTC(),
	}

	for _, name := range names {
		report, err := a.Analyze(models.HistoricalSeries{
			MetricName: name,
			Values:     bulk.Data[name],
			Timestamps: bulk.Timestamps,
		})
		if err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[name] = err.Error()
			continue
		}
		result.Reports = append(result.Reports, *report)
	}

	return result
}
