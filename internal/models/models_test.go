package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalSeries_RequestFieldNames(t *testing.T) {
	var series HistoricalSeries
	body := `{"metric_name":"mrr","historical_values":[1,2.5,3],"periods_ahead":4,"timestamps":["2024-01"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &series))

	assert.Equal(t, "mrr", series.MetricName)
	assert.Equal(t, []float64{1, 2.5, 3}, series.Values)
	assert.Equal(t, 4, series.PeriodsAhead)
	assert.Equal(t, []string{"2024-01"}, series.Timestamps)
}

func TestForecastResult_ResponseFieldNames(t *testing.T) {
	data, err := json.Marshal(ForecastResult{MetricName: "mrr", Predictions: []float64{1}})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"metric_name", "current_value", "predictions", "confidence_level", "trend", "volatility", "insights", "strategy"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "timestamps")
}

func TestBulkPatternReport_OmitsEmptyErrors(t *testing.T) {
	data, err := json.Marshal(BulkPatternReport{Reports: []PatternReport{}})
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"errors"`)
	assert.Contains(t, string(data), `"reports":[]`)
}
