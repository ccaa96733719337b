package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.Normalize()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.Normalize()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		fallback := Default()
		fallback.Normalize()
		return fallback, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

// DefaultPath is the config file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// DataDir resolves the directory holding the durable store, creating it
// when needed.
func (c *Config) DataDir() (string, error) {
	dir := c.Store.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			home, herr := os.UserHomeDir()
			if herr != nil {
				return "", fmt.Errorf("resolving data dir: %w", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return dir, nil
}
