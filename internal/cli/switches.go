package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/ui"
	"github.com/greenhouse-agent/gha/pkg/api"
)

var switchesCmd = &cobra.Command{
	Use:     "switches",
	Aliases: []string{"ls"},
	Short:   "List switch-controlled devices",
	Long: `Fetch /switches_state once and print every switch with its pin,
whether it is on, and who controls it.

Examples:
  gha switches
  gha switches --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchesCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(switchesCmd)
}

// SwitchOutput is one switch in --json output.
type SwitchOutput struct {
	Name     string `json:"name"`
	Pin      uint32 `json:"pin"`
	On       bool   `json:"on"`
	Auto     bool   `json:"auto"`
	Override bool   `json:"override"`
	Locked   bool   `json:"locked"`
}

// SwitchesOutput is the --json payload of 'gha switches'.
type SwitchesOutput struct {
	APIHost  string         `json:"api_host"`
	Switches []SwitchOutput `json:"switches"`
}

func switchesCommand(ctx context.Context, out io.Writer) error {
	s, err := loadSession(nil)
	if err != nil {
		return err
	}
	c := s.newClient(nil)

	list, err := c.FetchSwitches(ctx)
	if err != nil {
		return err
	}

	if MachineMode() {
		return WriteJSONSuccess(out, SwitchesOutput{APIHost: c.BaseURL(), Switches: switchOutputs(list)})
	}

	if len(list) == 0 {
		fmt.Fprintln(out, ui.MutedStyle().Render("The agent reports no switches."))
		return nil
	}
	fmt.Fprint(out, renderSwitchesTable(list))
	return nil
}

func switchOutputs(list []api.SwitchState) []SwitchOutput {
	out := make([]SwitchOutput, 0, len(list))
	for _, sw := range list {
		out = append(out, SwitchOutput{
			Name:     sw.Name,
			Pin:      sw.PinNum,
			On:       sw.IsOn(),
			Auto:     sw.IsAuto,
			Override: sw.OverrideAuto,
			Locked:   sw.Locked(),
		})
	}
	return out
}

func renderSwitchesTable(list []api.SwitchState) string {
	columns := []ui.TableColumn{
		{Title: "NAME", Width: 4},
		{Title: "PIN", Width: 3},
		{Title: "STATE", Width: 5},
		{Title: "CONTROL", Width: 7},
	}
	rows := make([][]string, 0, len(list))
	for _, sw := range list {
		rows = append(rows, []string{sw.Name, strconv.FormatUint(uint64(sw.PinNum), 10), onOffLabel(sw.IsOn()), controlLabel(sw)})
	}
	return ui.RenderSimpleTable(columns, rows)
}

func onOffLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// controlLabel says who currently drives a switch.
func controlLabel(sw api.SwitchState) string {
	switch {
	case !sw.IsAuto:
		return "manual"
	case sw.OverrideAuto:
		return "override"
	default:
		return ui.SymbolLocked + " auto"
	}
}
