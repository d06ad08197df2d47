package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/greenhouse-agent/gha/internal/config"
)

// ConfigFileCheck reports which config file is in use. gha runs on defaults
// without one, so a missing file is only a warning.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	// FixPath is where Fix writes a default config. Defaults to ./.gha.yaml.
	FixPath string
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path, or run 'gha init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'gha init' to create a " + config.ConfigFileName,
			Fixable:    true,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

func (c *ConfigFileCheck) Fix() error {
	path := c.FixPath
	if path == "" {
		path = config.ConfigFileName
	}
	return config.WriteDefault(path, config.DefaultConfig(), false)
}

// ConfigSchemaCheck loads and validates the config.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return CategoryConfig }

func (c *ConfigSchemaCheck) Run(context.Context) CheckResult {
	cfg, path, err := config.Resolve(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Schema error: %v", err),
			Suggestion: "Fix the configuration errors in your " + config.ConfigFileName,
		}
	}

	if path == "" {
		return CheckResult{Status: StatusPass, Message: "Defaults valid"}
	}
	return CheckResult{Status: StatusPass, Message: "Schema valid"}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Schema issues require manual intervention
}

// APIHostCheck verifies an agent address is configured.
type APIHostCheck struct {
	ConfigPath string
	// Override is the --api-host flag value, if any.
	Override string
}

func (c *APIHostCheck) Name() string     { return "api_host" }
func (c *APIHostCheck) Category() string { return CategoryConfig }

func (c *APIHostCheck) Run(context.Context) CheckResult {
	host := c.Override
	if host == "" {
		cfg, _, err := config.Resolve(c.ConfigPath)
		if err != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: "Cannot check api_host: config load error",
			}
		}
		if err := config.RequireAPIHost(cfg); err != nil {
			return CheckResult{
				Status:     StatusFail,
				Message:    "No API host configured",
				Suggestion: fmt.Sprintf("Set api_host in %s or export %s", config.ConfigFileName, config.EnvAPIHost),
			}
		}
		host = cfg.APIHost
	}

	normalized, err := config.NormalizeAPIHost(host)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Invalid API host %q", host),
			Suggestion: "Use a URL like http://greenhouse.local:6666",
		}
	}

	if normalized == config.DefaultAPIHost {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Using the default API host %s", normalized),
			Suggestion: "Run 'gha config set-host <url>' if the agent runs elsewhere",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("API host: %s", normalized),
	}
}

func (c *APIHostCheck) Fix() error {
	return nil
}

// NewConfigChecks creates all config-related checks.
func NewConfigChecks(configPath, apiHostOverride string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
		&APIHostCheck{ConfigPath: configPath, Override: apiHostOverride},
	}
}
