package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/doctor"
	"github.com/greenhouse-agent/gha/internal/ui"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config and agent issues",
	Long: `Run diagnostic checks to identify and fix common issues.

Checks:
  - Config file presence and validity
  - API host resolution (flag, environment, .env, config)
  - Agent reachability and the switch list
  - Metrics output and how many lines match the allow-list

Examples:
  gha doctor
  gha doctor --fix
  gha doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), doctorFix)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
	Fixed      []string         `json:"fixed,omitempty"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand implements the doctor command logic.
func doctorCommand(ctx context.Context, out io.Writer, fix bool) error {
	checks := doctor.NewConfigChecks(Config(), apiHostFlag)
	results := doctor.RunAll(ctx, checks)

	var fixed []string
	if fix {
		var err error
		fixed, err = doctor.FixAll(checks, results)
		if err != nil {
			return err
		}
		if len(fixed) > 0 {
			results = doctor.RunAll(ctx, checks)
		}
	}

	// Agent checks need a usable config; when it's broken the config
	// checks above already say why.
	if s, err := loadSession(io.Discard); err == nil {
		agentChecks := doctor.NewAgentChecks(s.newClient(nil), s.parser())
		checks = append(checks, agentChecks...)
		results = append(results, doctor.RunAllParallel(ctx, agentChecks)...)
	}

	output := buildDoctorOutput(checks, results, fixed)
	if MachineMode() {
		return WriteJSONSuccess(out, output)
	}
	renderDoctorText(out, output, fix)
	return nil
}

// buildDoctorOutput groups results by category in the order they ran.
func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult, fixed []string) DoctorOutput {
	grouped := make(map[string][]doctor.CheckResult)
	var order []string
	for i, check := range checks {
		cat := check.Category()
		if _, exists := grouped[cat]; !exists {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], results[i])
	}

	output := DoctorOutput{
		Categories: make([]CategoryOutput, 0, len(order)),
		Fixed:      fixed,
	}
	for _, cat := range order {
		output.Categories = append(output.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: counts[doctor.StatusWarn] == 0 && counts[doctor.StatusFail] == 0,
	}
	return output
}

// renderDoctorText outputs results in human-readable format.
func renderDoctorText(out io.Writer, output DoctorOutput, fixAttempted bool) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Greenhouse Diagnostic Report"))
	fmt.Fprintln(out)

	var rows []ui.CheckRow
	var all []doctor.CheckResult
	for _, cat := range output.Categories {
		for _, r := range cat.Results {
			rows = append(rows, ui.CheckRow{
				Status:     r.Status.String(),
				Category:   cat.Name,
				Message:    r.Message,
				Suggestion: r.Suggestion,
			})
			all = append(all, r)
		}
	}
	fmt.Fprint(out, ui.RenderCheckTable(rows))

	for _, name := range output.Fixed {
		fmt.Fprintf(out, "%s fixed %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), name)
	}
	if len(output.Fixed) > 0 {
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	fmt.Fprintln(out)

	if output.Summary.AllClear {
		fmt.Fprintf(out, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(all))
	} else {
		fmt.Fprintf(out, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(all))
		if output.Summary.Fixable > 0 && !fixAttempted {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Run with %s to attempt automatic fixes where possible.\n",
				ui.MutedStyle().Render("--fix"))
		}
	}
	fmt.Fprintln(out)
}
