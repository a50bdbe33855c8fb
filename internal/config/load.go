package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "osutool")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "osutool")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "osutool")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "osutool")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks values that cannot be used as configured.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalidConfig, c.Output.Format)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: scan workers %d", ErrInvalidConfig, c.Scan.Workers)
	}
	if _, err := filepath.Match(c.Scan.Pattern, ""); err != nil {
		return fmt.Errorf("%w: scan pattern %q: %v", ErrInvalidConfig, c.Scan.Pattern, err)
	}
	return nil
}
