package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/greenhouse-agent/gha/internal/errors"
)

const configTemplate = `# gha configuration
# Docs: gha --help, gha doctor
version: %d

# Base URL of the greenhouse agent. GHA_API_HOST or API_HOST override this.
api_host: %s

# Every request to the agent gives up after this long.
timeout: %s
log_level: %s

client:
  # Extra attempts for failed reads. Pin changes are never retried.
  retries: %d
  retry_max_elapsed: %s
  # Consecutive failures before requests are short-circuited. 0 disables.
  breaker_failures: %d
  breaker_open: %s

metrics:
  # Only metrics whose names end in one of these are shown. Add "c" for Celsius.
  suffixes: [%s]
  # drop | default | flag
  on_parse_error: %s

dashboard:
  interval: %s
  history: %d
`

// RenderDefault returns a commented config file for cfg.
func RenderDefault(cfg *Config) []byte {
	suffixes := ""
	for i, s := range cfg.Metrics.Suffixes {
		if i > 0 {
			suffixes += ", "
		}
		suffixes += s
	}
	return []byte(fmt.Sprintf(configTemplate,
		CurrentConfigVersion,
		cfg.APIHost,
		cfg.Timeout,
		cfg.LogLevel,
		cfg.Client.Retries,
		cfg.Client.RetryMaxElapsed,
		cfg.Client.BreakerFailures,
		cfg.Client.BreakerOpen,
		suffixes,
		cfg.Metrics.OnParseError,
		cfg.Dashboard.Interval,
		cfg.Dashboard.History,
	))
}

// WriteDefault writes a commented config file to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it, or 'gha config set-host' to change the host.")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create the config directory",
				"Check permissions on "+dir)
		}
	}

	if err := os.WriteFile(path, RenderDefault(cfg), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Check file permissions")
	}
	return nil
}

// SetAPIHost updates api_host in an existing config file, keeping the rest of
// the file (comments included) intact. The key is added if missing.
func SetAPIHost(configPath, host string) error {
	normalized, err := NormalizeAPIHost(host)
	if err != nil {
		return err
	}
	return setTopLevelScalar(configPath, "api_host", normalized)
}

// setTopLevelScalar sets key: value at the document root.
func setTopLevelScalar(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse as yaml.Node to preserve structure
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		// Empty file
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	if valueNode := findMapValue(docNode, key); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value
		valueNode.Content = nil
	} else {
		docNode.Content = append(docNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return node.Content[i+1]
		}
	}

	return nil
}
