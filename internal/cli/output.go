package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/kpi-forecast-go/internal/models"
)

var titleCaser = cases.Title(language.English)

// displayName turns "monthly_revenue" into "Monthly Revenue".
func displayName(metricName string) string {
	name := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(metricName)
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func writeForecastTable(w io.Writer, result *models.ForecastResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", displayName(result.MetricName))
	fmt.Fprintf(tw, "Current value:\t%s\n", formatNumber(result.CurrentValue))
	fmt.Fprintf(tw, "Trend:\t%s\n", result.Trend)
	fmt.Fprintf(tw, "Volatility:\t%s\n", result.Volatility)
	fmt.Fprintf(tw, "Confidence:\t%s\n", result.ConfidenceLevel)
	fmt.Fprintf(tw, "Strategy:\t%s\n\n", result.Strategy)

	fmt.Fprintln(tw, "PERIOD\tPREDICTION")
	for i, p := range result.Predictions {
		fmt.Fprintf(tw, "+%d\t%s\n", i+1, formatNumber(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeInsights(w, result.Insights)
}

func writePatternTable(w io.Writer, report *models.PatternReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", displayName(report.MetricName))
	fmt.Fprintf(tw, "Trend:\t%s (slope %.4f)\n", report.Trend, report.Slope)
	fmt.Fprintf(tw, "Volatility:\t%s (cv %.4f)\n", report.VolatilityLevel, report.VolatilityValue)
	fmt.Fprintf(tw, "Average:\t%s\n", formatNumber(report.Average))
	fmt.Fprintf(tw, "Recent average:\t%s\n", formatNumber(report.RecentAverage))
	fmt.Fprintf(tw, "Seasonality:\t%s\n", report.Seasonality)
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeInsights(w, report.Insights)
}

func writeInsights(w io.Writer, insights []string) error {
	if len(insights) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nInsights:"); err != nil {
		return err
	}
	for _, insight := range insights {
		if _, err := fmt.Fprintf(w, "  %s\n", insight); err != nil {
			return err
		}
	}
	return nil
}
