package cli

import (
	"github.com/spf13/cobra"

	"github.com/irfndi/kpi-forecast-go/internal/models"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var metric, rawValues string

	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Classify the trend and volatility of a metric",
		Example: `  kpictl analyze --metric churn_rate --values 5.1,4.8,4.9,4.2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := readValues(rawValues, a.stdin)
			if err != nil {
				return err
			}

			report, err := a.service().Analyze(cmd.Context(), models.HistoricalSeries{
				MetricName: metric,
				Values:     values,
			})
			if err != nil {
				return err
			}

			if a.output == outputJSON {
				return writeJSON(a.stdout, report)
			}
			return writePatternTable(a.stdout, report)
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", "", "metric name")
	cmd.Flags().StringVarP(&rawValues, "values", "v", "", "comma separated history, oldest first; - reads stdin")
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}
