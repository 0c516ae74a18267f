package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the calculator server and its workers
type Config struct {
	// HTTP configuration
	Host            string   `env:"HOST" envDefault:"0.0.0.0"`
	HTTPPort        int      `env:"HTTP_PORT" envDefault:"8000"`
	CORSOrigins     []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173,http://localhost:8000,http://127.0.0.1:3000,http://127.0.0.1:5173,http://127.0.0.1:8000,https://calculator.example.com"`
	PrincipalHeader string   `env:"PRINCIPAL_HEADER" envDefault:"X-User-ID"`

	// Storage configuration
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"calculator.db"`
	HistoryBuffer int    `env:"HISTORY_BUFFER" envDefault:"256"`

	// Evaluator limits
	Precision     int           `env:"PRECISION" envDefault:"15"`
	CASTimeout    time.Duration `env:"CAS_TIMEOUT" envDefault:"30s"`
	MaxExprLength int           `env:"MAX_EXPR_LENGTH" envDefault:"2048"`
	PlotMaxPoints int           `env:"PLOT_MAX_POINTS" envDefault:"5000"`

	// Routing configuration
	CELEnabled      bool   `env:"CEL_ENABLED" envDefault:"true"`
	RouterRulesFile string `env:"ROUTER_RULES_FILE"`

	// Job configuration
	JobsEnabled  bool          `env:"JOBS_ENABLED" envDefault:"false"`
	WorkerID     string        `env:"WORKER_ID" envDefault:"calc-1"`
	JobResultTTL time.Duration `env:"JOB_RESULT_TTL" envDefault:"1h"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"calc.work"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"calc-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"calc.results"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`

	// LLM configuration
	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMModel    string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !isValidPort(c.HTTPPort) {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}

	if !isValidPort(c.HealthPort) {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if c.HTTPPort == c.HealthPort {
		return fmt.Errorf("HTTP_PORT and HEALTH_PORT must differ")
	}

	if strings.TrimSpace(c.PrincipalHeader) == "" {
		return fmt.Errorf("PRINCIPAL_HEADER is required")
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.HistoryBuffer <= 0 {
		return fmt.Errorf("HISTORY_BUFFER must be positive")
	}

	if c.Precision < 1 || c.Precision > 17 {
		return fmt.Errorf("PRECISION must be between 1 and 17")
	}

	if c.CASTimeout < 0 {
		return fmt.Errorf("CAS_TIMEOUT must be non-negative")
	}

	if c.MaxExprLength < 0 {
		return fmt.Errorf("MAX_EXPR_LENGTH must be non-negative")
	}

	if c.PlotMaxPoints < 2 {
		return fmt.Errorf("PLOT_MAX_POINTS must be at least 2")
	}

	// Redis settings only matter when jobs are enabled
	if c.JobsEnabled {
		if c.WorkerID == "" {
			return fmt.Errorf("WORKER_ID is required")
		}

		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}

		if c.StreamKey == "" {
			return fmt.Errorf("STREAM_KEY is required")
		}

		if c.ConsumerGroup == "" {
			return fmt.Errorf("CONSUMER_GROUP is required")
		}

		if c.ResultStream == "" {
			return fmt.Errorf("RESULT_STREAM is required")
		}

		if c.BlockTime <= 0 {
			return fmt.Errorf("BLOCK_TIME must be positive")
		}

		if c.JobResultTTL <= 0 {
			return fmt.Errorf("JOB_RESULT_TTL must be positive")
		}
	}

	if c.LLMProvider == "" {
		return fmt.Errorf("LLM_PROVIDER is required")
	}

	// LLM_API_KEY is optional; translation is disabled without it

	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// EvaluatorOptions returns the evaluator limits
func (c *Config) EvaluatorOptions() calc.Options {
	return calc.Options{
		Precision:     c.Precision,
		CASTimeout:    c.CASTimeout,
		MaxExprLength: c.MaxExprLength,
	}
}

// HTTPAddr returns the API listen address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// LLMEnabled reports whether natural language translation can be offered
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{HTTPAddr=%s, HealthPort=%d, DatabasePath=%s, Precision=%d, CASTimeout=%s, "+
			"CELEnabled=%v, JobsEnabled=%v, WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, "+
			"LLMProvider=%s, LLMModel=%s, LLMEnabled=%v, LogLevel=%s}",
		c.HTTPAddr(),
		c.HealthPort,
		c.DatabasePath,
		c.Precision,
		c.CASTimeout,
		c.CELEnabled,
		c.JobsEnabled,
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.LLMProvider,
		c.LLMModel,
		c.LLMEnabled(),
		c.LogLevel,
	)
}
