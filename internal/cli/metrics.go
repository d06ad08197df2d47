package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/metrics"
	"github.com/greenhouse-agent/gha/internal/ui"
)

var (
	metricsRaw    bool
	metricsStrict bool
)

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Aliases: []string{"sensors"},
	Short:   "Show sensor readings",
	Long: `Fetch /metrics once and print the readings that match the suffix
allow-list (metrics.suffixes, default f and h), rounded to two decimals.

Malformed lines are handled per metrics.on_parse_error and reported on
stderr. With --strict they fail the command instead.

Examples:
  gha metrics
  gha metrics --raw
  gha metrics --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return metricsCommand(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), metricsRaw, metricsStrict)
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsRaw, "raw", false, "print the agent's /metrics text unfiltered")
	metricsCmd.Flags().BoolVar(&metricsStrict, "strict", false, "fail if any allowed line is malformed")
	rootCmd.AddCommand(metricsCmd)
}

// MetricOutput is one reading in --json output.
type MetricOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Error string `json:"error,omitempty"`
}

// MetricsOutput is the --json payload of 'gha metrics'.
type MetricsOutput struct {
	APIHost   string         `json:"api_host"`
	Readings  []MetricOutput `json:"readings"`
	Malformed int            `json:"malformed"`
	Raw       string         `json:"raw,omitempty"`
}

func metricsCommand(ctx context.Context, out, errOut io.Writer, raw, strict bool) error {
	s, err := loadSession(nil)
	if err != nil {
		return err
	}
	c := s.newClient(nil)

	text, err := c.FetchMetricsText(ctx)
	if err != nil {
		return err
	}

	rows, parseErrs := s.parser().ParseWithErrors(text)
	if strict && len(parseErrs) > 0 {
		return metrics.AsError(parseErrs)
	}

	if MachineMode() {
		data := MetricsOutput{APIHost: c.BaseURL(), Readings: metricOutputs(rows), Malformed: len(parseErrs)}
		if raw {
			data.Raw = text
		}
		return WriteJSONSuccess(out, data)
	}

	if raw {
		fmt.Fprint(out, text)
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, ui.MutedStyle().Render("No readings matched the allow-list."))
	} else {
		fmt.Fprint(out, renderMetricsTable(rows))
	}

	for _, perr := range parseErrs {
		fmt.Fprintf(errOut, "%s %s\n", ui.WarningStyle().Render("!"), perr.Error())
	}
	return nil
}

func metricOutputs(rows []metrics.Row) []MetricOutput {
	out := make([]MetricOutput, 0, len(rows))
	for _, r := range rows {
		m := MetricOutput{Name: r.Name, Value: r.Value, Unit: metrics.Unit(r.Name)}
		if r.Err != nil {
			m.Error = r.Err.Error()
		}
		out = append(out, m)
	}
	return out
}

func renderMetricsTable(rows []metrics.Row) string {
	columns := []ui.TableColumn{
		{Title: "SENSOR", Width: 6},
		{Title: "METRIC", Width: 6},
		{Title: "VALUE", Width: 5},
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		value := r.Value
		if unit := metrics.Unit(r.Name); unit != "" && r.Err == nil {
			value += " " + unit
		}
		cells = append(cells, []string{metrics.Label(r.Name), r.Name, value})
	}
	return ui.RenderSimpleTable(columns, cells)
}
