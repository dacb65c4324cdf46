package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the cp configuration
type Config struct {
	Copy       CopyConfig       `yaml:"copy"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Log        LogConfig        `yaml:"log"`
}

type CopyConfig struct {
	// Sync flushes the destination to stable storage before it is closed.
	Sync           bool  `yaml:"sync"`
	SequentialHint *bool `yaml:"sequential_hint"`
	CheckSpace     bool  `yaml:"check_space"`
}

type MonitoringConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that defaults cannot fix
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Monitoring.Enabled && c.Monitoring.Textfile == "" {
		return fmt.Errorf("monitoring.textfile is required when monitoring is enabled")
	}
	return nil
}

// SequentialHintEnabled reports whether the source gets a sequential read hint
func (c *Config) SequentialHintEnabled() bool {
	return c.Copy.SequentialHint == nil || *c.Copy.SequentialHint
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Copy.SequentialHint == nil {
		enabled := true
		c.Copy.SequentialHint = &enabled
	}
}
