// Package config handles osutool configuration loading and management.
package config

import "path/filepath"

// Config holds all tool settings.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Output  OutputConfig  `yaml:"output"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig holds batch parsing settings.
type ScanConfig struct {
	Workers int    `yaml:"workers"` // Parallel parses, 0 = one per CPU
	Pattern string `yaml:"pattern"` // Glob matched against file names
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `yaml:"format"` // "yaml" or "json"
}

// IndexConfig holds beatmap index settings.
type IndexConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Workers: 0,
			Pattern: "*.osu",
		},
		Output: OutputConfig{
			Format: "yaml",
		},
		Index: IndexConfig{
			Path: filepath.Join(ConfigDir(), "beatmaps.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
