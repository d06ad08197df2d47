package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/internal/errors"
)

// isolate clears the environment variables and working directory state that
// Load consults, so tests don't pick up the developer's own setup.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvAPIHost, "")
	t.Setenv(EnvAPIHostLegacy, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, DefaultAPIHost, cfg.APIHost)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.Client.Retries)
	assert.Equal(t, 0, cfg.Client.BreakerFailures)
	assert.True(t, cfg.Client.Serialize)
	assert.Equal(t, []string{"f", "h"}, cfg.Metrics.Suffixes)
	assert.Equal(t, "drop", cfg.Metrics.OnParseError)
	assert.Equal(t, 5*time.Second, cfg.Dashboard.Interval)
	assert.Equal(t, 60, cfg.Dashboard.History)
	assert.Equal(t, "0.0.0.0:6666", cfg.Simulator.Listen)
	assert.Equal(t, DefaultSensors(), cfg.Simulator.Sensors)
	assert.Equal(t, DefaultSwitches(), cfg.Simulator.Switches)
	assert.NoError(t, Validate(cfg))
	assert.NoError(t, ValidateSimulator(cfg.Simulator))
}

func TestLoad(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
version: 1
api_host: greenhouse.local:6666/
timeout: 3s
client:
  retries: 2
  breaker_failures: 5
metrics:
  suffixes: [c, f, h]
  on_parse_error: flag
  default_value: -1
dashboard:
  interval: 1s
simulator:
  listen: 127.0.0.1:7777
  switches:
    - gpio_pin: 5
      name: pump
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://greenhouse.local:6666", cfg.APIHost)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Client.Retries)
	assert.Equal(t, 10*time.Second, cfg.Client.RetryMaxElapsed, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Client.BreakerFailures)
	assert.True(t, cfg.Client.Serialize)
	assert.Equal(t, []string{"c", "f", "h"}, cfg.Metrics.Suffixes)
	assert.Equal(t, "flag", cfg.Metrics.OnParseError)
	assert.Equal(t, -1.0, cfg.Metrics.DefaultValue)
	assert.Equal(t, time.Second, cfg.Dashboard.Interval)
	assert.Equal(t, 60, cfg.Dashboard.History)
	assert.Equal(t, "127.0.0.1:7777", cfg.Simulator.Listen)
	assert.Equal(t, []SwitchConfig{{GPIOPin: 5, Name: "pump"}}, cfg.Simulator.Switches,
		"a configured list replaces the defaults")
	assert.Equal(t, DefaultSensors(), cfg.Simulator.Sensors)
}

func TestLoadMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, "api_host: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIHost, cfg.APIHost)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestAPIHostPrecedence(t *testing.T) {
	t.Run("env beats file", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, ConfigFileName)
		writeFile(t, path, "api_host: http://from-file:1\n")
		t.Setenv(EnvAPIHost, "http://from-env:2")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://from-env:2", cfg.APIHost)
	})

	t.Run("legacy env name", func(t *testing.T) {
		isolate(t)
		t.Setenv(EnvAPIHostLegacy, "http://legacy:3")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://legacy:3", cfg.APIHost)
	})

	t.Run("GHA_API_HOST beats API_HOST", func(t *testing.T) {
		isolate(t)
		t.Setenv(EnvAPIHost, "http://new:1")
		t.Setenv(EnvAPIHostLegacy, "http://old:2")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://new:1", cfg.APIHost)
	})

	t.Run("dotenv beats file", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, ConfigFileName)
		writeFile(t, path, "api_host: http://from-file:1\n")
		writeFile(t, filepath.Join(dir, DotEnvFile), "API_HOST=http://from-dotenv:4\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://from-dotenv:4", cfg.APIHost)
		assert.Empty(t, os.Getenv(EnvAPIHostLegacy), ".env must not leak into the process environment")
	})

	t.Run("env beats dotenv", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, DotEnvFile), "GHA_API_HOST=http://from-dotenv:4\n")
		t.Setenv(EnvAPIHost, "http://from-env:2")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://from-env:2", cfg.APIHost)
	})
}

func TestFind(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "custom.yaml")
		writeFile(t, path, "version: 1\n")

		found, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		dir := isolate(t)
		_, err := Find(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("current directory", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, ConfigFileName)
		writeFile(t, path, "version: 1\n")

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Base(path), filepath.Base(found))
	})

	t.Run("parent directory", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("HOME", t.TempDir())
		writeFile(t, filepath.Join(root, ConfigFileName), "version: 1\n")
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))
		t.Chdir(nested)

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, ConfigFileName), evalPath(t, found, root))
	})

	t.Run("stops at git root", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("HOME", t.TempDir())
		writeFile(t, filepath.Join(root, ConfigFileName), "version: 1\n")
		repo := filepath.Join(root, "repo")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
		t.Chdir(repo)

		found, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("global config", func(t *testing.T) {
		home := isolate(t)
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		writeFile(t, global, "version: 1\n")
		work := filepath.Join(t.TempDir(), "work")
		require.NoError(t, os.MkdirAll(filepath.Join(work, ".git"), 0755))
		t.Chdir(work)

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, global, found)
	})
}

// evalPath maps found back under root, hiding symlinked temp dirs (macOS /private).
func evalPath(t *testing.T, found, root string) string {
	t.Helper()
	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	resolvedFound, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	rel, err := filepath.Rel(resolvedRoot, resolvedFound)
	require.NoError(t, err)
	return filepath.Join(root, rel)
}

func TestResolve(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ConfigFileName), "api_host: http://resolved:1\n")

	cfg, path, err := Resolve("")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, "http://resolved:1", cfg.APIHost)
}

func TestNormalizeAPIHost(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://greenhouse.local:6666", "http://greenhouse.local:6666", false},
		{"greenhouse.local:6666", "http://greenhouse.local:6666", false},
		{"https://gh.example.com/", "https://gh.example.com", false},
		{"  http://10.0.0.5:6666//  ", "http://10.0.0.5:6666", false},
		{"", "", false},
		{"ftp://host", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeAPIHost(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "grower")

	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "logs", "gha.log"), ExpandPath("~/logs/gha.log"))
	assert.Equal(t, home+"/gha-grower.log", ExpandPath("${HOME}/gha-${USER}.log"))
	assert.Equal(t, "~other/x", ExpandPath("~other/x"))
	assert.Equal(t, "", ExpandPath(""))
}
