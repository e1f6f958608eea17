// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Server  ServerConfig  `yaml:"server"`
}

// OutputConfig configures generated documentation.
type OutputConfig struct {
	Format             string `yaml:"format"` // html, table, json or yaml
	Path               string `yaml:"path"`   // empty or "-" means stdout
	IncludeDescription *bool  `yaml:"include_description"`
}

// Descriptions reports whether schema descriptions are rendered.
func (o OutputConfig) Descriptions() bool {
	return o.IncludeDescription == nil || *o.IncludeDescription
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// MetricsConfig configures metrics export for one-shot runs.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics after each run.
	Textfile string `yaml:"textfile"`
}

// ServerConfig configures the documentation server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Formats lists the output formats a configuration may name.
var Formats = []string{"html", "table", "json", "yaml"}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadWithFallback loads path when it exists, and otherwise builds the
// configuration from environment variables and defaults alone.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return finish(&Config{})
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Validate checks a configuration after it was changed in code, e.g. by
// command line flags.
func (c *Config) Validate() error {
	return validate(c)
}

func finish(cfg *Config) (*Config, error) {
	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies API2HTML_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("API2HTML_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("API2HTML_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("API2HTML_OUTPUT_INCLUDE_DESCRIPTION"); v != "" {
		b := parseBool(v)
		cfg.Output.IncludeDescription = &b
	}

	if v := os.Getenv("API2HTML_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("API2HTML_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("API2HTML_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}

	if v := os.Getenv("API2HTML_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("API2HTML_SERVER_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("API2HTML_SERVER_READ_TIMEOUT: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}
	if v := os.Getenv("API2HTML_SERVER_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("API2HTML_SERVER_WRITE_TIMEOUT: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}
	return nil
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Output.Format == "" {
		cfg.Output.Format = "html"
	}
	if cfg.Output.IncludeDescription == nil {
		on := true
		cfg.Output.IncludeDescription = &on
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
}

func validate(cfg *Config) error {
	valid := false
	for _, f := range Formats {
		if cfg.Output.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(Formats, ", "), cfg.Output.Format)
	}

	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}

	return nil
}
