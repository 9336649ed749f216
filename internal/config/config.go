// Package config loads the YAML configuration of the datafixer CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all datafixer configuration.
type Config struct {
	// Versioning
	TargetVersion   int    `yaml:"target_version"`   // 0 means the newest registered fix
	BaselineVersion int    `yaml:"baseline_version"` // assumed for unstamped documents
	VersionKey      string `yaml:"version_key"`

	// Execution
	Workers int `yaml:"workers"`

	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig bounds what the decoders accept.
type InputConfig struct {
	MaxDepth        int  `yaml:"max_depth"`
	AllowDuplicates bool `yaml:"allow_duplicates"`
}

// OutputConfig controls where and how migrated documents are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // empty writes to stdout
	Format string `yaml:"format"` // json, yaml; empty keeps the input format
	Pretty bool   `yaml:"pretty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`    // debug, info, warn, error
	Encoding    string `yaml:"encoding"` // json, console
	Development bool   `yaml:"development"`
}

// Environment variables that override file settings.
const (
	EnvTarget   = "DATAFIXER_TARGET"
	EnvWorkers  = "DATAFIXER_WORKERS"
	EnvLogLevel = "DATAFIXER_LOG_LEVEL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaselineVersion: 99,
		VersionKey:      "DataVersion",
		Workers:         4,
		Input: InputConfig{
			MaxDepth: 512,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvTarget); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTarget, err)
		}
		c.TargetVersion = n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.BaselineVersion < 0 {
		return fmt.Errorf("baseline_version must not be negative, got %d", c.BaselineVersion)
	}
	if c.TargetVersion != 0 && c.TargetVersion < c.BaselineVersion {
		return fmt.Errorf("target_version %d is below baseline_version %d", c.TargetVersion, c.BaselineVersion)
	}
	if c.VersionKey == "" {
		return fmt.Errorf("version_key must not be empty")
	}
	if c.Input.MaxDepth < 0 {
		return fmt.Errorf("input.max_depth must not be negative, got %d", c.Input.MaxDepth)
	}
	switch c.Output.Format {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format: %s (valid: json, yaml)", c.Output.Format)
	}

	validLevel := false
	for _, l := range ValidLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding: %s (valid: json, console)", c.Logging.Encoding)
	}
	return nil
}
