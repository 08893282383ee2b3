// Package config owns the application configuration: defaults, file and
// environment loading through viper, and validation. Access goes through
// the Interface so collaborators can be handed a mock in tests.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
)

// Interface is the read surface of the application configuration.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Rules() map[string]ruleconfig.Entry

	// Engine setters, driven by CLI flags.
	SetEngineConcurrency(int)
}

// Config holds the entire application configuration. Fields are private to
// enforce access through the Interface getters.
type Config struct {
	logger LoggerConfig
	engine EngineConfig
	// rules is the config-file layer of rule configuration; CLI-provided
	// layer files stack on top of it.
	rules map[string]ruleconfig.Entry
}

func (c *Config) Logger() LoggerConfig               { return c.logger }
func (c *Config) Engine() EngineConfig               { return c.engine }
func (c *Config) Rules() map[string]ruleconfig.Entry { return c.rules }

func (c *Config) SetEngineConcurrency(n int) { c.engine.Concurrency = n }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EngineConfig tunes the analysis engine.
type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// fileConfig mirrors Config with exported fields so viper can unmarshal
// into it; NewConfigFromViper copies it into the private-field Config.
type fileConfig struct {
	Logger LoggerConfig                `mapstructure:"logger"`
	Engine EngineConfig                `mapstructure:"engine"`
	Rules  map[string]ruleconfig.Entry `mapstructure:"rules"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "canvaslint")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.concurrency", 4)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are defined above; failing to load them is a bug.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg := &Config{
		logger: raw.Logger,
		engine: raw.Engine,
		rules:  raw.Rules,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for sane values. Rule-layer semantics
// (unknown ids, severities) are validated later against the rule registry;
// only structural sanity lives here.
func (c *Config) Validate() error {
	if c.engine.Concurrency <= 0 {
		return fmt.Errorf("engine.concurrency must be a positive integer")
	}
	switch c.logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.logger.Format)
	}
	return nil
}
