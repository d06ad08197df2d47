package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/greenhouse-agent/gha/internal/errors"
)

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidParsePolicies lists the accepted metrics.on_parse_error values.
var ValidParsePolicies = []string{"drop", "default", "flag"}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config hasn't been loaded yet",
			"This is unexpected - try running the command again.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but gha only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade gha, or lower 'version' in .gha.yaml.")
	}

	if cfg.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("timeout must be positive, got %s", cfg.Timeout),
			"Use a duration like '10s'. Requests are never allowed to hang forever.")
	}

	if !contains(ValidLogLevels, strings.ToLower(cfg.LogLevel)) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log_level '%s'", cfg.LogLevel),
			"Use one of: "+strings.Join(ValidLogLevels, ", "))
	}

	if err := validateClient(cfg.Client); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'client' section in your .gha.yaml.")
	}

	if err := validateMetrics(cfg.Metrics); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'metrics' section in your .gha.yaml.")
	}

	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'dashboard' section in your .gha.yaml.")
	}

	return nil
}

// ValidateSimulator checks the simulator section. It's separate from Validate
// because only 'gha simulate' cares about it.
func ValidateSimulator(sim SimulatorConfig) error {
	if err := validateSimulator(sim); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'simulator' section in your .gha.yaml.")
	}
	return nil
}

// RequireAPIHost returns a CONFIG error when no agent address is configured.
func RequireAPIHost(cfg *Config) error {
	if cfg == nil || strings.TrimSpace(cfg.APIHost) == "" {
		return errors.New(errors.ErrConfig,
			"No API host configured",
			fmt.Sprintf("Set api_host in %s, export %s, or pass --api-host.", ConfigFileName, EnvAPIHost))
	}
	return nil
}

func validateClient(c ClientConfig) error {
	if c.Retries < 0 {
		return fmt.Errorf("client.retries can't be negative (got %d)", c.Retries)
	}
	if c.Retries > 0 && c.RetryMaxElapsed <= 0 {
		return fmt.Errorf("client.retry_max_elapsed must be positive when retries are enabled")
	}
	if c.BreakerFailures < 0 {
		return fmt.Errorf("client.breaker_failures can't be negative (got %d)", c.BreakerFailures)
	}
	if c.BreakerFailures > 0 && c.BreakerOpen <= 0 {
		return fmt.Errorf("client.breaker_open must be positive when the breaker is enabled")
	}
	return nil
}

func validateMetrics(m MetricsConfig) error {
	if !contains(ValidParsePolicies, m.OnParseError) {
		return fmt.Errorf("metrics.on_parse_error '%s' is not one of %s", m.OnParseError, strings.Join(ValidParsePolicies, ", "))
	}
	for i, s := range m.Suffixes {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("metrics.suffixes has an empty entry at position %d", i)
		}
	}
	return nil
}

func validateDashboard(d DashboardConfig) error {
	if d.Interval <= 0 {
		return fmt.Errorf("dashboard.interval must be positive, got %s", d.Interval)
	}
	if d.History <= 0 {
		return fmt.Errorf("dashboard.history must be positive, got %d", d.History)
	}
	return nil
}

func validateSimulator(s SimulatorConfig) error {
	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		return fmt.Errorf("simulator.listen '%s' should look like host:port", s.Listen)
	}
	if s.Tick <= 0 {
		return fmt.Errorf("simulator.tick must be positive, got %s", s.Tick)
	}

	sensors := make(map[string]bool)
	for i, sensor := range s.Sensors {
		if strings.TrimSpace(sensor.Name) == "" {
			return fmt.Errorf("simulator sensor at position %d needs a name", i)
		}
		if !model.IsValidLegacyMetricName(sensor.Name) {
			return fmt.Errorf("simulator sensor '%s' isn't a valid metric name (letters, digits, '_' and ':', not starting with a digit)", sensor.Name)
		}
		if sensors[sensor.Name] {
			return fmt.Errorf("simulator sensor '%s' is defined twice", sensor.Name)
		}
		sensors[sensor.Name] = true
	}

	pins := make(map[uint32]string)
	names := make(map[string]bool)
	for i, sw := range s.Switches {
		if strings.TrimSpace(sw.Name) == "" {
			return fmt.Errorf("simulator switch at position %d needs a name", i)
		}
		if !model.IsValidLegacyMetricName(sw.Name) {
			return fmt.Errorf("simulator switch '%s' isn't a valid metric name (letters, digits, '_' and ':', not starting with a digit)", sw.Name)
		}
		if other, ok := pins[sw.GPIOPin]; ok {
			return fmt.Errorf("switches '%s' and '%s' both use pin %d", other, sw.Name, sw.GPIOPin)
		}
		if names[sw.Name] {
			return fmt.Errorf("simulator switch '%s' is defined twice", sw.Name)
		}
		pins[sw.GPIOPin] = sw.Name
		names[sw.Name] = true
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
