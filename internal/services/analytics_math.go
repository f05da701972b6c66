package services

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

func calculateMeanFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// leastSquaresSlope fits values against their index 0..n-1 and returns the
// slope of the best-fit line.
func leastSquaresSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	return beta
}

// endpointSlope is the average rate between the first and last observation,
// divided by the series length rather than the number of steps.
func endpointSlope(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return (values[len(values)-1] - values[0]) / float64(len(values))
}

// coefficientOfVariation returns the mean and the population standard deviation
// divided by the mean. The ratio is 0 when the mean is 0.
func coefficientOfVariation(values []float64) (mean float64, ratio float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return mean, 0
	}
	return mean, std / mean
}

// trailingMean averages the last period values, or the whole series when it is shorter.
func trailingMean(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return calculateMeanFloat64(values)
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	result := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	if len(result) == 0 {
		return calculateMeanFloat64(values[len(values)-period:])
	}
	return result[len(result)-1]
}

func clampNonNegative(value float64) float64 {
	return math.Max(0, value)
}

func roundTo(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func roundSeries(values []float64, places int32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = roundTo(v, places)
	}
	return out
}
