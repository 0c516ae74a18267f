package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 8082, cfg.HealthPort)
	assert.Equal(t, "X-User-ID", cfg.PrincipalHeader)
	assert.Equal(t, "calculator.db", cfg.DatabasePath)
	assert.Equal(t, 15, cfg.Precision)
	assert.Equal(t, 30*time.Second, cfg.CASTimeout)
	assert.Equal(t, "calc.work", cfg.StreamKey)
	assert.Equal(t, "calc-workers", cfg.ConsumerGroup)
	assert.Equal(t, time.Hour, cfg.JobResultTTL)
	assert.False(t, cfg.JobsEnabled)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:5173")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("CAS_TIMEOUT", "5s")
	t.Setenv("LLM_API_KEY", "secret-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr())
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.EvaluatorOptions().CASTimeout)
	assert.True(t, cfg.LLMEnabled())
	assert.NotContains(t, cfg.String(), "secret-key")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.HTTPPort = 70000 }},
		{"same ports", func(c *Config) { c.HealthPort = c.HTTPPort }},
		{"empty principal header", func(c *Config) { c.PrincipalHeader = " " }},
		{"zero history buffer", func(c *Config) { c.HistoryBuffer = 0 }},
		{"precision too high", func(c *Config) { c.Precision = 30 }},
		{"tiny plot", func(c *Config) { c.PlotMaxPoints = 1 }},
		{"jobs without redis", func(c *Config) { c.JobsEnabled = true; c.RedisAddr = "" }},
		{"jobs without ttl", func(c *Config) { c.JobsEnabled = true; c.JobResultTTL = 0 }},
		{"zero llm timeout", func(c *Config) { c.LLMTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := valid()
	cfg.RedisAddr = ""
	assert.NoError(t, cfg.Validate(), "redis is not checked while jobs are disabled")
}
