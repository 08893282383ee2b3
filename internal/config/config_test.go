package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "console", cfg.Logger().Format)
	assert.Equal(t, "canvaslint", cfg.Logger().ServiceName)
	assert.Equal(t, 4, cfg.Engine().Concurrency)
	assert.Empty(t, cfg.Rules())
}

func TestNewConfigFromViperReadsFile(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
logger:
  level: debug
  format: json
engine:
  concurrency: 8
rules:
  complexity:
    enabled: false
  console-statement:
    severity_override: action
    custom_settings:
      allowed: ["error"]
`)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "json", cfg.Logger().Format)
	assert.Equal(t, 8, cfg.Engine().Concurrency)

	rules := cfg.Rules()
	require.Contains(t, rules, "complexity")
	require.NotNil(t, rules["complexity"].Enabled)
	assert.False(t, *rules["complexity"].Enabled)
	assert.EqualValues(t, "action", rules["console-statement"].SeverityOverride)
	assert.Contains(t, rules["console-statement"].CustomSettings, "allowed")
}

func TestValidation(t *testing.T) {
	t.Run("rejects non-positive concurrency", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("engine.concurrency", 0)
		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine.concurrency")
	})

	t.Run("rejects unknown logger format", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("logger.format", "xml")
		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger.format")
	})
}

func TestSetEngineConcurrency(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetEngineConcurrency(16)
	assert.Equal(t, 16, cfg.Engine().Concurrency)
}
