package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"future version", func(c *Config) { c.Version = 99 }, "from the future"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "Unknown log_level"},
		{"uppercase log level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"negative retries", func(c *Config) { c.Client.Retries = -1 }, "can't be negative"},
		{"retries without budget", func(c *Config) {
			c.Client.Retries = 3
			c.Client.RetryMaxElapsed = 0
		}, "retry_max_elapsed"},
		{"breaker without open window", func(c *Config) {
			c.Client.BreakerFailures = 3
			c.Client.BreakerOpen = 0
		}, "breaker_open"},
		{"unknown parse policy", func(c *Config) { c.Metrics.OnParseError = "ignore" }, "on_parse_error"},
		{"empty suffix", func(c *Config) { c.Metrics.Suffixes = []string{"f", " "} }, "empty entry"},
		{"no suffixes is allowed", func(c *Config) { c.Metrics.Suffixes = nil }, ""},
		{"zero interval", func(c *Config) { c.Dashboard.Interval = 0 }, "dashboard.interval"},
		{"zero history", func(c *Config) { c.Dashboard.History = 0 }, "dashboard.history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidateSimulator(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SimulatorConfig)
		wantErr string
	}{
		{"defaults", func(*SimulatorConfig) {}, ""},
		{"bad listen", func(s *SimulatorConfig) { s.Listen = "6666" }, "host:port"},
		{"zero tick", func(s *SimulatorConfig) { s.Tick = 0 * time.Second }, "tick"},
		{"unnamed sensor", func(s *SimulatorConfig) { s.Sensors = []SensorConfig{{}} }, "needs a name"},
		{"duplicate sensor", func(s *SimulatorConfig) {
			s.Sensors = []SensorConfig{{Name: "a"}, {Name: "a"}}
		}, "defined twice"},
		{"sensor name with a space", func(s *SimulatorConfig) {
			s.Sensors = []SensorConfig{{Name: "back room"}}
		}, "valid metric name"},
		{"sensor name starting with a digit", func(s *SimulatorConfig) {
			s.Sensors = []SensorConfig{{Name: "2nd_bench"}}
		}, "valid metric name"},
		{"switch name with a dash", func(s *SimulatorConfig) {
			s.Switches = []SwitchConfig{{GPIOPin: 4, Name: "grow-light"}}
		}, "valid metric name"},
		{"snake case names", func(s *SimulatorConfig) {
			s.Sensors = []SensorConfig{{Name: "back_room"}}
			s.Switches = []SwitchConfig{{GPIOPin: 4, Name: "grow_light"}}
		}, ""},
		{"duplicate pin", func(s *SimulatorConfig) {
			s.Switches = []SwitchConfig{{GPIOPin: 1, Name: "a"}, {GPIOPin: 1, Name: "b"}}
		}, "both use pin 1"},
		{"duplicate switch name", func(s *SimulatorConfig) {
			s.Switches = []SwitchConfig{{GPIOPin: 1, Name: "a"}, {GPIOPin: 2, Name: "a"}}
		}, "defined twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := DefaultConfig().Simulator
			tt.mutate(&sim)
			err := ValidateSimulator(sim)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireAPIHost(t *testing.T) {
	assert.NoError(t, RequireAPIHost(DefaultConfig()))

	cfg := DefaultConfig()
	cfg.APIHost = ""
	err := RequireAPIHost(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), EnvAPIHost)
}
