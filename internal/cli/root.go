package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/errors"
)

// Global flags
var (
	cfgFile     string
	apiHostFlag string
	machineMode bool
)

var rootCmd = &cobra.Command{
	Use:   "gha",
	Short: "Greenhouse agent dashboard and CLI",
	Long: `gha talks to a greenhouse agent over HTTP: it shows sensor readings,
lists switch-controlled devices and turns them on or off.

Run 'gha dashboard' for the interactive view, or 'gha simulate' to start an
in-memory agent to try things against.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	// cobra only fills this in during Execute; unknownCommandError needs it
	// before then.
	SuggestionsMinimumDistance: 2,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gha.yaml, searched upward)")
	rootCmd.PersistentFlags().StringVar(&apiHostFlag, "api-host", "", "agent base URL (overrides config and environment)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
}

// MachineMode returns true if machine-readable output is enabled.
func MachineMode() bool {
	return machineMode
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(1)
	}
}

// reportError writes err as a JSON envelope in machine mode, or in the
// human format otherwise.
func reportError(stdout, stderr io.Writer, err error) {
	if isUnknownCommandError(err) {
		err = unknownCommandError(err)
	}

	if MachineMode() {
		_ = WriteJSONFromError(stdout, err)
		return
	}

	var e *errors.Error
	if stderrors.As(err, &e) {
		fmt.Fprintln(stderr, e.Error())
		return
	}
	fmt.Fprintf(stderr, "✗ %v\n", err)
}

// isUnknownCommandError reports whether err is cobra's unknown command/flag error.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of
// `unknown command "foo" for "gha"`. Returns "" if it can't.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func unknownCommandError(err error) error {
	name := extractUnknownCommand(err)
	if name == "" || !strings.HasPrefix(err.Error(), "unknown command") {
		return errors.WrapWithCode(err, errors.ErrExec, err.Error(), "Run 'gha --help' for usage.")
	}

	suggestion := "Run 'gha --help' to see available commands."
	if s := rootCmd.SuggestionsFor(name); len(s) > 0 {
		suggestion = fmt.Sprintf("Did you mean 'gha %s'?", s[0])
	}
	return errors.New(errors.ErrExec, fmt.Sprintf("Unknown command '%s'", name), suggestion)
}
