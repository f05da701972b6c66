// Package cli implements kpictl, an offline command line front end over the
// forecasting engine.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/irfndi/kpi-forecast-go/internal/logging"
	"github.com/irfndi/kpi-forecast-go/internal/services"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

type app struct {
	output       string
	noRegression bool
	logLevel     string
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{stdin: in, stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:   "kpictl",
		Short: "Forecast and analyze KPI time series",
		Long: `kpictl runs the KPI forecasting engine locally on a series of values and
issues bearer tokens for the forecast API.

Examples:
  kpictl forecast --metric monthly_revenue --values 100,105,110,115,120 --periods 3
  kpictl analyze --metric churn_rate --values 5.1,4.8,4.9,4.2
  cat values.txt | kpictl forecast --metric signups --values -
  kpictl token --client-id dashboard --secret "$JWT_SECRET"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.validateOutput()
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputTable, "output format: table or json")
	cmd.PersistentFlags().BoolVar(&a.noRegression, "no-regression", false, "use the heuristic forecaster only")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "error", "engine log level")

	cmd.AddCommand(newForecastCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newTokenCmd(a))
	return cmd
}

func (a *app) validateOutput() error {
	switch a.output {
	case outputJSON, outputTable:
		return nil
	default:
		return errUnknownOutput(a.output)
	}
}

// service builds an uncached engine; each invocation is independent.
func (a *app) service() *services.ForecastService {
	cfg := config.DefaultForecastConfig()
	cfg.RegressionEnabled = !a.noRegression

	logger := logging.NewServiceLogger(a.logLevel)
	logger.SetOutput(a.stderr)
	return services.NewForecastService(cfg, nil, logger)
}
