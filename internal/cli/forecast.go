package cli

import (
	"github.com/spf13/cobra"

	"github.com/irfndi/kpi-forecast-go/internal/models"
)

func newForecastCmd(a *app) *cobra.Command {
	var metric, rawValues string
	var periods int

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Predict the next periods of a metric",
		Example: `  kpictl forecast --metric monthly_revenue --values 100,105,110,115,120 --periods 3
  kpictl forecast --metric signups --values - --output json < signups.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := readValues(rawValues, a.stdin)
			if err != nil {
				return err
			}

			result, err := a.service().Forecast(cmd.Context(), models.HistoricalSeries{
				MetricName:   metric,
				Values:       values,
				PeriodsAhead: periods,
			})
			if err != nil {
				return err
			}

			if a.output == outputJSON {
				return writeJSON(a.stdout, result)
			}
			return writeForecastTable(a.stdout, result)
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", "", "metric name")
	cmd.Flags().StringVarP(&rawValues, "values", "v", "", "comma separated history, oldest first; - reads stdin")
	cmd.Flags().IntVarP(&periods, "periods", "p", 0, "periods to forecast (default 3, max 12)")
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}
