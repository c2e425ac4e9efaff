package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging   LoggingConfig       `mapstructure:"logging"`
	Execution ExecutionConfig     `mapstructure:"execution"`
	Policy    PolicyConfig        `mapstructure:"policy"`
	Languages map[string]Language `mapstructure:"languages"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// ExecutionConfig holds process execution limits and timeouts
type ExecutionConfig struct {
	RunTimeoutSec     int `mapstructure:"run_timeout_sec"`
	CompileTimeoutSec int `mapstructure:"compile_timeout_sec"`
	CPULimitSec       int `mapstructure:"cpu_limit_sec"`
	MemoryLimitMB     int `mapstructure:"memory_limit_mb"`
	ProbeTimeoutSec   int `mapstructure:"probe_timeout_sec"`
	MaxOutputBytes    int `mapstructure:"max_output_bytes"`
}

// PolicyConfig holds static analysis limits
type PolicyConfig struct {
	MaxSourceBytes int `mapstructure:"max_source_bytes"`
}

// Language holds optional per-language toolchain overrides. Empty fields
// fall back to the built-in language profile.
type Language struct {
	Binary         string `mapstructure:"binary"`
	CompilerBinary string `mapstructure:"compiler_binary"`
	CompileCmd     string `mapstructure:"compile_cmd"`
	RunCmd         string `mapstructure:"run_cmd"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("execution.run_timeout_sec", 10)
	viper.SetDefault("execution.compile_timeout_sec", 30)
	viper.SetDefault("execution.cpu_limit_sec", 10)
	viper.SetDefault("execution.memory_limit_mb", 128)
	viper.SetDefault("execution.probe_timeout_sec", 5)
	viper.SetDefault("execution.max_output_bytes", 5000)
	viper.SetDefault("policy.max_source_bytes", 10000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if c.Execution.RunTimeoutSec <= 0 {
		return fmt.Errorf("execution.run_timeout_sec must be positive, got: %d", c.Execution.RunTimeoutSec)
	}

	if c.Execution.CompileTimeoutSec <= 0 {
		return fmt.Errorf("execution.compile_timeout_sec must be positive, got: %d", c.Execution.CompileTimeoutSec)
	}

	if c.Execution.ProbeTimeoutSec <= 0 {
		return fmt.Errorf("execution.probe_timeout_sec must be positive, got: %d", c.Execution.ProbeTimeoutSec)
	}

	if c.Execution.MaxOutputBytes <= 0 {
		return fmt.Errorf("execution.max_output_bytes must be positive, got: %d", c.Execution.MaxOutputBytes)
	}

	if c.Policy.MaxSourceBytes <= 0 {
		return fmt.Errorf("policy.max_source_bytes must be positive, got: %d", c.Policy.MaxSourceBytes)
	}

	// CPU and memory limits are best-effort and may be disabled with 0,
	// but negative values are always a mistake.
	if c.Execution.CPULimitSec < 0 {
		return fmt.Errorf("execution.cpu_limit_sec must not be negative, got: %d", c.Execution.CPULimitSec)
	}

	if c.Execution.MemoryLimitMB < 0 {
		return fmt.Errorf("execution.memory_limit_mb must not be negative, got: %d", c.Execution.MemoryLimitMB)
	}

	return nil
}

// RunTimeout returns the run-stage timeout as a duration
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Execution.RunTimeoutSec) * time.Second
}

// CompileTimeout returns the compile-stage timeout as a duration
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.Execution.CompileTimeoutSec) * time.Second
}

// ProbeTimeout returns the toolchain probe timeout as a duration
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Execution.ProbeTimeoutSec) * time.Second
}
