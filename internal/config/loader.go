package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/greenhouse-agent/gha/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".gha.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/gha"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// DotEnvFile is read from the working directory and the config file's directory.
	DotEnvFile = ".env"

	// EnvAPIHost overrides api_host.
	EnvAPIHost = "GHA_API_HOST"
	// EnvAPIHostLegacy is the variable the original web dashboard read.
	EnvAPIHostLegacy = "API_HOST"
	// EnvLogLevel overrides log_level.
	EnvLogLevel = "GHA_LOG_LEVEL"
)

// Load reads config from path, layering in .env files and the environment.
// An empty path loads defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'gha init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	if err := applyDotEnv(v, dotEnvPaths(path)); err != nil {
		return nil, err
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .gha.yaml in current directory
// 3. .gha.yaml in parent directories (stops at git root or home)
// 4. ~/.config/gha/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			break
		}
		dir = parent
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// Resolve finds and loads the config, returning the path it came from
// ("" when running on defaults).
func Resolve(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// newViper returns a viper instance with defaults and env bindings registered.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("api_host", def.APIHost)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("client.retries", def.Client.Retries)
	v.SetDefault("client.retry_max_elapsed", def.Client.RetryMaxElapsed.String())
	v.SetDefault("client.breaker_failures", def.Client.BreakerFailures)
	v.SetDefault("client.breaker_open", def.Client.BreakerOpen.String())
	v.SetDefault("client.serialize", def.Client.Serialize)
	v.SetDefault("metrics.on_parse_error", def.Metrics.OnParseError)
	v.SetDefault("dashboard.interval", def.Dashboard.Interval.String())
	v.SetDefault("dashboard.history", def.Dashboard.History)
	v.SetDefault("simulator.listen", def.Simulator.Listen)
	v.SetDefault("simulator.tick", def.Simulator.Tick.String())

	// The first variable that is set wins.
	_ = v.BindEnv("api_host", EnvAPIHost, EnvAPIHostLegacy)
	_ = v.BindEnv("log_level", EnvLogLevel)

	return v
}

// dotEnvPaths lists the .env files to consult, nearest first.
func dotEnvPaths(configPath string) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(dir string) {
		p := filepath.Join(dir, DotEnvFile)
		if seen[p] {
			return
		}
		seen[p] = true
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		add(cwd)
	}
	if configPath != "" {
		add(filepath.Dir(configPath))
	}
	return paths
}

// applyDotEnv feeds api_host from .env files into v. The process environment
// still wins, and the first file that sets a variable wins over later ones.
// The files are read, not loaded, so the process environment is left alone.
func applyDotEnv(v *viper.Viper, paths []string) error {
	if envSet(EnvAPIHost) || envSet(EnvAPIHostLegacy) {
		return nil
	}

	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read "+p,
				"Lines in a .env file look like KEY=value")
		}
		for _, key := range []string{EnvAPIHost, EnvAPIHostLegacy} {
			if host := strings.TrimSpace(vars[key]); host != "" {
				v.Set("api_host", host)
				return nil
			}
		}
	}
	return nil
}

func envSet(key string) bool {
	val, ok := os.LookupEnv(key)
	return ok && strings.TrimSpace(val) != ""
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Simulator.Sensors = nil
	cfg.Simulator.Switches = nil

	if err := v.Unmarshal(cfg); err != nil {
		where := "your config"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	applyListDefaults(cfg)
	cfg.LogFile = ExpandPath(cfg.LogFile)

	host, err := NormalizeAPIHost(cfg.APIHost)
	if err != nil {
		return nil, err
	}
	cfg.APIHost = host

	return cfg, nil
}

// NormalizeAPIHost adds a missing http:// scheme and strips trailing slashes,
// so "greenhouse.local:6666/" becomes "http://greenhouse.local:6666".
func NormalizeAPIHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", nil
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")

	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like an API host", raw),
			"Use a URL like http://greenhouse.local:6666")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported scheme '%s' in api_host", u.Scheme),
			"The agent speaks plain HTTP(S); use http:// or https://")
	}
	return host, nil
}
