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

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Workers.PoolSize)
	assert.Equal(t, 300*time.Second, cfg.Timeouts.ConversionTimeout)
	assert.Empty(t, cfg.Summarizer.APIKey)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CONVREG_HTTP_PORT", "9999")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("WORKER_POOL_SIZE", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Workers.PoolSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort: 8080,
			GRPCPort: 9090,
			LogLevel: "info",
			Store:    StoreConfig{Backend: "memory"},
			Workers:  WorkerConfig{PoolSize: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"http port too low", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"grpc port too high", func(c *Config) { c.GRPCPort = 70000 }, "invalid gRPC port"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }, "unsupported store backend"},
		{"redis backend without addr", func(c *Config) {
			c.Store.Backend = "redis"
			c.Redis.Addr = ""
		}, "redis address is required"},
		{"zero pool size", func(c *Config) { c.Workers.PoolSize = 0 }, "worker pool size"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MemoryBackendIgnoresRedis(t *testing.T) {
	cfg := &Config{
		HTTPPort: 8080,
		GRPCPort: 9090,
		LogLevel: "info",
		Store:    StoreConfig{Backend: "memory"},
		Workers:  WorkerConfig{PoolSize: 1},
	}

	assert.NoError(t, cfg.Validate())
}

func TestAddrs(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}
