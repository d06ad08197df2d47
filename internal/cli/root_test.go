package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/simulator"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	stdinIsTerminal = func() bool { return false }
	os.Exit(m.Run())
}

// resetFlags puts every package-level flag variable back to its default.
func resetFlags() {
	cfgFile = ""
	apiHostFlag = ""
	machineMode = false
	dashboardInterval = 0
	metricsRaw = false
	metricsStrict = false
	pinForce = false
	doctorFix = false
	simulateListen = ""
	simulateSeed = 0
	initAPIHost = ""
	initForce = false
	versionShort = false
}

// isolate points HOME and the working directory at a temp dir and clears
// environment overrides so no real config leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvAPIHost, "")
	t.Setenv(config.EnvAPIHostLegacy, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags()
	})

	_, err := rootCmd.ExecuteC()
	return out.String(), errOut.String(), err
}

// startSimulator serves a seeded simulated agent and returns it with its URL.
func startSimulator(t *testing.T) (*simulator.Simulator, string) {
	t.Helper()
	sim, err := simulator.New(config.DefaultConfig().Simulator, simulator.WithSeed(1))
	require.NoError(t, err)
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)
	return sim, srv.URL
}

func decodeEnvelope(t *testing.T, out string, data interface{}) JSONEnvelope {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *JSONError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return JSONEnvelope{Success: env.Success, Error: env.Error}
}

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  stderrors.New(`unknown command "foo" for "gha"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  stderrors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "unknown shorthand flag",
			err:  stderrors.New(`unknown shorthand flag: 'x' in -x`),
			want: true,
		},
		{
			name: "other error",
			err:  stderrors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  stderrors.New(`unknown command "foo" for "gha"`),
			want: "foo",
		},
		{
			name: "command with hyphen",
			err:  stderrors.New(`unknown command "set-hots" for "gha config"`),
			want: "set-hots",
		},
		{
			name: "no quotes returns empty",
			err:  stderrors.New("unknown command foo"),
			want: "",
		},
		{
			name: "single quote returns empty",
			err:  stderrors.New(`unknown command "foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestUnknownCommandSuggestsClosestMatch(t *testing.T) {
	err := unknownCommandError(stderrors.New(`unknown command "switchs" for "gha"`))

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.ErrExec, e.Code)
	assert.Equal(t, "Unknown command 'switchs'", e.Message)
	assert.Equal(t, "Did you mean 'gha switches'?", e.Suggestion)
}

func TestUnknownCommandSuggestionsWithoutExecute(t *testing.T) {
	assert.Equal(t, 2, rootCmd.SuggestionsMinimumDistance)

	tests := []struct {
		typo string
		want string
	}{
		{"dashbord", "Did you mean 'gha dashboard'?"},
		{"doctr", "Did you mean 'gha doctor'?"},
		{"zzzzzz", "Run 'gha --help' to see available commands."},
	}
	for _, tt := range tests {
		t.Run(tt.typo, func(t *testing.T) {
			err := unknownCommandError(stderrors.New(`unknown command "` + tt.typo + `" for "gha"`))
			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, tt.want, e.Suggestion)
		})
	}
}

func TestReportError(t *testing.T) {
	t.Run("human format", func(t *testing.T) {
		resetFlags()
		var out, errOut bytes.Buffer
		reportError(&out, &errOut, errors.New(errors.ErrConfig, "Bad config", "Fix it"))

		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "✗ Bad config")
		assert.Contains(t, errOut.String(), "Fix it")
	})

	t.Run("plain error", func(t *testing.T) {
		resetFlags()
		var out, errOut bytes.Buffer
		reportError(&out, &errOut, stderrors.New("boom"))
		assert.Equal(t, "✗ boom\n", errOut.String())
	})

	t.Run("machine mode", func(t *testing.T) {
		resetFlags()
		machineMode = true
		t.Cleanup(resetFlags)

		var out, errOut bytes.Buffer
		reportError(&out, &errOut, errors.NewNoServer(stderrors.New("refused"), "/metrics"))

		assert.Empty(t, errOut.String())
		env := decodeEnvelope(t, out.String(), nil)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, ErrCodeAgentUnreachable, env.Error.Code)
	})
}

func TestUnknownCommandThroughRoot(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "swiches")
	require.Error(t, err)
	assert.True(t, isUnknownCommandError(err))
}
