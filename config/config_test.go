package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
		Execution: ExecutionConfig{
			RunTimeoutSec:     10,
			CompileTimeoutSec: 30,
			CPULimitSec:       10,
			MemoryLimitMB:     128,
			ProbeTimeoutSec:   5,
			MaxOutputBytes:    5000,
		},
		Policy: PolicyConfig{
			MaxSourceBytes: 10000,
		},
		Languages: map[string]Language{},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := validConfig()
		err := cfg.validate()
		require.NoError(t, err)
	})

	t.Run("InvalidLoggingMode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Mode = "verbose"
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.mode")
	})

	t.Run("ZeroRunTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.RunTimeoutSec = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run_timeout_sec")
	})

	t.Run("ZeroCompileTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.CompileTimeoutSec = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compile_timeout_sec")
	})

	t.Run("ZeroMaxOutputBytes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.MaxOutputBytes = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_output_bytes")
	})

	t.Run("ZeroMaxSourceBytes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Policy.MaxSourceBytes = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_source_bytes")
	})

	t.Run("ResourceLimitsMayBeDisabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.CPULimitSec = 0
		cfg.Execution.MemoryLimitMB = 0
		err := cfg.validate()
		require.NoError(t, err)
	})

	t.Run("NegativeResourceLimits", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.CPULimitSec = -1
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cpu_limit_sec")

		cfg = validConfig()
		cfg.Execution.MemoryLimitMB = -1
		err = cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "memory_limit_mb")
	})
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 10*time.Second, cfg.RunTimeout())
	assert.Equal(t, 30*time.Second, cfg.CompileTimeout())
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout())
}

func TestNew(t *testing.T) {
	t.Run("DefaultsAreValid", func(t *testing.T) {
		cfg, err := New()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 10, cfg.Execution.RunTimeoutSec)
		assert.Equal(t, 30, cfg.Execution.CompileTimeoutSec)
		assert.Equal(t, 128, cfg.Execution.MemoryLimitMB)
		assert.Equal(t, 10000, cfg.Policy.MaxSourceBytes)
		assert.Equal(t, 5000, cfg.Execution.MaxOutputBytes)
	})
}
