package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/ui"
	"github.com/greenhouse-agent/gha/pkg/api"
)

var pinForce bool

var pinCmd = &cobra.Command{
	Use:   "pin [pin|name] [on|off|toggle]",
	Short: "Turn a switch on or off",
	Long: `Drive a switch's GPIO pin through /pin/output, then re-read the switch
list so the printed state is what the agent reports.

Switches under automatic control are refused unless you take them over
first with 'gha override', or pass --force to send the request anyway.

With no arguments in a terminal, you pick the switch and action interactively.

Examples:
  gha pin heater off
  gha pin 27 on
  gha pin fan toggle --force`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pinCommand(cmd.Context(), cmd.OutOrStdout(), args, pinForce)
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override [pin|name] [on|off|toggle]",
	Short: "Take or release manual control of an automatic switch",
	Long: `Set a switch's override_auto flag through /pin/override_auto. While the
override is on, the switch can be driven with 'gha pin'.

Examples:
  gha override fan on
  gha override 17 off`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return overrideCommand(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	pinCmd.Flags().BoolVarP(&pinForce, "force", "f", false, "send the request even if the switch is under automatic control")
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(overrideCmd)
}

// action is what the user asked a switch control to do.
type action string

const (
	actionOn     action = "on"
	actionOff    action = "off"
	actionToggle action = "toggle"
)

func parseAction(s string) (action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true":
		return actionOn, nil
	case "off", "0", "false":
		return actionOff, nil
	case "toggle", "flip":
		return actionToggle, nil
	}
	return "", errors.New(errors.ErrExec,
		fmt.Sprintf("Unknown action '%s'", s),
		"Use on, off, or toggle.")
}

// apply returns the desired on/off value given the current one.
func (a action) apply(current bool) bool {
	switch a {
	case actionOn:
		return true
	case actionOff:
		return false
	default:
		return !current
	}
}

// PinOutput is the --json payload of 'gha pin' and 'gha override'.
type PinOutput struct {
	Requested string       `json:"requested"`
	Switch    SwitchOutput `json:"switch"`
}

// pinTarget loads the session, fetches the switch list and resolves the
// switch and action from args, prompting for whatever is missing.
func pinTarget(ctx context.Context, args []string, filter func(api.SwitchState) bool) (*client.Client, api.SwitchState, action, error) {
	s, err := loadSession(nil)
	if err != nil {
		return nil, api.SwitchState{}, "", err
	}
	c := s.newClient(nil)

	list, err := c.FetchSwitches(ctx)
	if err != nil {
		return nil, api.SwitchState{}, "", err
	}

	if len(args) < 2 {
		if !canPrompt() {
			return nil, api.SwitchState{}, "", errors.New(errors.ErrExec,
				"Need a switch and an action",
				"Pass both, e.g. 'gha pin heater off'. Run 'gha switches' to see names and pins.")
		}
		sw, act, err := promptPinTarget(list, args, filter)
		return c, sw, act, err
	}

	sw, err := resolveSwitch(list, args[0])
	if err != nil {
		return nil, api.SwitchState{}, "", err
	}
	act, err := parseAction(args[1])
	if err != nil {
		return nil, api.SwitchState{}, "", err
	}
	return c, sw, act, nil
}

func pinCommand(ctx context.Context, out io.Writer, args []string, force bool) error {
	c, sw, act, err := pinTarget(ctx, args, nil)
	if err != nil {
		return err
	}

	if sw.Locked() && !force {
		return errors.New(errors.ErrPinUpdate,
			fmt.Sprintf("%s is under automatic control", sw.Name),
			fmt.Sprintf("Run 'gha override %s on' first, or pass --force.", sw.Name))
	}

	want := sw.WithPinState(act.apply(sw.IsOn()))
	if err := c.SetPinState(ctx, want); err != nil {
		return err
	}
	return reportSwitch(out, c, sw.PinNum, string(act))
}

func overrideCommand(ctx context.Context, out io.Writer, args []string) error {
	c, sw, act, err := pinTarget(ctx, args, api.SwitchState.ShowOverride)
	if err != nil {
		return err
	}

	if !sw.ShowOverride() {
		return errors.New(errors.ErrPinOverride,
			fmt.Sprintf("%s isn't under automatic control", sw.Name),
			fmt.Sprintf("Drive it directly with 'gha pin %s on|off'.", sw.Name))
	}

	want := sw.WithOverride(act.apply(sw.OverrideAuto))
	if err := c.SetPinOverride(ctx, want); err != nil {
		return err
	}
	return reportSwitch(out, c, sw.PinNum, "override "+string(act))
}

// reportSwitch prints the switch as the agent now reports it.
func reportSwitch(out io.Writer, c *client.Client, pin uint32, requested string) error {
	sw, ok := api.SwitchesState{Switches: c.Switches()}.ByPin(pin)
	if !ok {
		return errors.New(errors.ErrNoServer,
			fmt.Sprintf("Pin %d disappeared from the switch list", pin),
			"The agent may have been reconfigured. Run 'gha switches'.")
	}

	if MachineMode() {
		return WriteJSONSuccess(out, PinOutput{Requested: requested, Switch: switchOutputs([]api.SwitchState{sw})[0]})
	}

	fmt.Fprintf(out, "%s %s (pin %d) is %s, %s\n",
		ui.SuccessStyle().Render(ui.SymbolSuccess), sw.Name, sw.PinNum, onOffLabel(sw.IsOn()), controlLabel(sw))
	return nil
}

// resolveSwitch finds a switch by pin number or name.
func resolveSwitch(list []api.SwitchState, ref string) (api.SwitchState, error) {
	state := api.SwitchesState{Switches: list}
	if n, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if sw, ok := state.ByPin(uint32(n)); ok {
			return sw, nil
		}
	}
	if sw, ok := state.ByName(ref); ok {
		return sw, nil
	}
	for _, sw := range list {
		if strings.EqualFold(sw.Name, ref) {
			return sw, nil
		}
	}

	names := make([]string, 0, len(list))
	for _, sw := range list {
		names = append(names, fmt.Sprintf("%s (%d)", sw.Name, sw.PinNum))
	}
	suggestion := "The agent reports no switches."
	if len(names) > 0 {
		suggestion = "Known switches: " + strings.Join(names, ", ")
	}
	return api.SwitchState{}, errors.New(errors.ErrExec,
		fmt.Sprintf("No switch named or on pin '%s'", ref), suggestion)
}

// stdinIsTerminal is swapped out in tests so prompts never block.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func canPrompt() bool {
	return !MachineMode() && stdinIsTerminal()
}

func promptPinTarget(list []api.SwitchState, args []string, filter func(api.SwitchState) bool) (api.SwitchState, action, error) {
	var options []huh.Option[string]
	for _, sw := range list {
		if filter != nil && !filter(sw) {
			continue
		}
		label := fmt.Sprintf("%s  pin %d  %s  %s", sw.Name, sw.PinNum, onOffLabel(sw.IsOn()), controlLabel(sw))
		options = append(options, huh.NewOption(label, strconv.FormatUint(uint64(sw.PinNum), 10)))
	}
	if len(options) == 0 {
		return api.SwitchState{}, "", errors.New(errors.ErrExec,
			"No switches to choose from",
			"Run 'gha switches' to see what the agent reports.")
	}

	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	var actionStr string

	var fields []huh.Field
	if ref == "" {
		fields = append(fields, huh.NewSelect[string]().
			Title("Switch").
			Options(options...).
			Value(&ref))
	}
	fields = append(fields, huh.NewSelect[string]().
		Title("Action").
		Options(
			huh.NewOption("Toggle", string(actionToggle)),
			huh.NewOption("On", string(actionOn)),
			huh.NewOption("Off", string(actionOff)),
		).
		Value(&actionStr))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return api.SwitchState{}, "", err
	}

	sw, err := resolveSwitch(list, ref)
	if err != nil {
		return api.SwitchState{}, "", err
	}
	return sw, action(actionStr), nil
}
