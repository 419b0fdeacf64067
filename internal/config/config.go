package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the conversion registry.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"CONVREG_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"CONVREG_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Store selects the dataset store backend
	Store StoreConfig

	// Redis configuration
	Redis RedisConfig

	// Summarizer configuration
	Summarizer SummarizerConfig

	// Worker configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StoreConfig holds dataset store configuration.
type StoreConfig struct {
	Backend string        `env:"STORE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"STORE_TTL" envDefault:"24h"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// SummarizerConfig holds configuration for the optional LLM-backed
// summarizing converter. The converter is only registered when an API
// key is present.
type SummarizerConfig struct {
	APIKey         string        `env:"SUMMARIZER_API_KEY"`
	Model          string        `env:"SUMMARIZER_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	MaxTokens      int           `env:"SUMMARIZER_MAX_TOKENS" envDefault:"1024"`
	RequestTimeout time.Duration `env:"SUMMARIZER_REQUEST_TIMEOUT" envDefault:"120s"`
}

// WorkerConfig holds conversion worker pool configuration.
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations.
type TimeoutConfig struct {
	ConversionTimeout time.Duration `env:"TIMEOUT_CONVERSION" envDefault:"300s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
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

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate store backend
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported store backend: %s (must be memory or redis)", c.Store.Backend)
	}

	// Redis settings only matter when the backend needs them
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis backend")
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
