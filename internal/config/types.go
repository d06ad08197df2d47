package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultAPIHost is used when neither the config file nor the environment
// names an agent. It matches the simulator's default listen address.
const DefaultAPIHost = "http://localhost:6666"

// Config represents the complete .gha.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// APIHost is the base URL of the greenhouse agent, e.g. http://greenhouse.local:6666.
	// Overridden by GHA_API_HOST or API_HOST from the environment or a .env file.
	APIHost string `yaml:"api_host" mapstructure:"api_host"`

	// Timeout bounds every request to the agent.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// LogFile receives logs from the dashboard, which can't write to the terminal.
	// Supports ~ and ${HOME}/${USER}. Empty disables dashboard logging.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	Client    ClientConfig    `yaml:"client" mapstructure:"client"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Simulator SimulatorConfig `yaml:"simulator" mapstructure:"simulator"`
}

// ClientConfig controls request resilience. The zero values keep the plain
// one-request-per-operation behavior.
type ClientConfig struct {
	// Retries is how many extra attempts a failed read gets. Mutations are never retried.
	Retries int `yaml:"retries" mapstructure:"retries"`

	// RetryMaxElapsed caps the total time spent retrying one read.
	RetryMaxElapsed time.Duration `yaml:"retry_max_elapsed" mapstructure:"retry_max_elapsed"`

	// BreakerFailures is how many consecutive failures open the circuit. 0 disables it.
	BreakerFailures int `yaml:"breaker_failures" mapstructure:"breaker_failures"`

	// BreakerOpen is how long the circuit stays open before a trial request.
	BreakerOpen time.Duration `yaml:"breaker_open" mapstructure:"breaker_open"`

	// Serialize runs dashboard mutations one at a time through a queue.
	Serialize bool `yaml:"serialize" mapstructure:"serialize"`
}

// MetricsConfig controls which metric lines are shown and how bad lines are handled.
type MetricsConfig struct {
	// Suffixes is the allow-list of metric name endings.
	Suffixes []string `yaml:"suffixes" mapstructure:"suffixes"`

	// OnParseError is drop, default, or flag.
	OnParseError string `yaml:"on_parse_error" mapstructure:"on_parse_error"`

	// DefaultValue is shown for malformed lines when OnParseError is "default".
	DefaultValue float64 `yaml:"default_value" mapstructure:"default_value"`
}

// DashboardConfig controls the TUI.
type DashboardConfig struct {
	// Interval between polls of the agent.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// History is the number of samples kept per metric for sparklines.
	History int `yaml:"history" mapstructure:"history"`
}

// SimulatorConfig describes the in-memory agent started by 'gha simulate'.
type SimulatorConfig struct {
	Listen      string         `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string       `yaml:"cors_origins" mapstructure:"cors_origins"`
	Tick        time.Duration  `yaml:"tick" mapstructure:"tick"`
	Sensors     []SensorConfig `yaml:"sensors" mapstructure:"sensors"`
	Switches    []SwitchConfig `yaml:"switches" mapstructure:"switches"`
}

// SensorConfig names a simulated temperature/humidity sensor.
type SensorConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// SwitchConfig is a simulated switch bound to a GPIO pin number.
type SwitchConfig struct {
	GPIOPin uint32 `yaml:"gpio_pin" mapstructure:"gpio_pin"`
	Name    string `yaml:"name" mapstructure:"name"`
	// Auto marks the switch as under automatic control.
	Auto bool `yaml:"auto" mapstructure:"auto"`
}

// DefaultConfig returns a Config with sensible defaults.
// Simulator sensors and switches are filled in after loading (see applyListDefaults)
// so a user-supplied list replaces the defaults instead of merging into them.
func DefaultConfig() *Config {
	cfg := &Config{
		Version:  CurrentConfigVersion,
		APIHost:  DefaultAPIHost,
		Timeout:  10 * time.Second,
		LogLevel: "info",
		Client: ClientConfig{
			Retries:         0,
			RetryMaxElapsed: 10 * time.Second,
			BreakerFailures: 0,
			BreakerOpen:     30 * time.Second,
			Serialize:       true,
		},
		Metrics: MetricsConfig{
			Suffixes:     []string{"f", "h"},
			OnParseError: "drop",
		},
		Dashboard: DashboardConfig{
			Interval: 5 * time.Second,
			History:  60,
		},
		Simulator: SimulatorConfig{
			Listen: "0.0.0.0:6666",
			Tick:   2 * time.Second,
		},
	}
	applyListDefaults(cfg)
	return cfg
}

// DefaultSensors are the simulator's sensors when none are configured.
func DefaultSensors() []SensorConfig {
	return []SensorConfig{{Name: "inside"}, {Name: "outside"}}
}

// DefaultSwitches are the simulator's switches when none are configured.
func DefaultSwitches() []SwitchConfig {
	return []SwitchConfig{
		{GPIOPin: 17, Name: "fan", Auto: true},
		{GPIOPin: 27, Name: "heater"},
	}
}

func applyListDefaults(cfg *Config) {
	if len(cfg.Simulator.Sensors) == 0 {
		cfg.Simulator.Sensors = DefaultSensors()
	}
	if len(cfg.Simulator.Switches) == 0 {
		cfg.Simulator.Switches = DefaultSwitches()
	}
}
