package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all driver configuration.
type Config struct {
	Server  ServerConfig
	Logging LogConfig
	Engine  EngineConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"4444"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	RateLimitRPS   int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	RateLimited    bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// EngineConfig holds script engine tunables.
type EngineConfig struct {
	// Bootstrap handshake admission control for async workers.
	BootstrapAttempts int           `envconfig:"SCRIPT_BOOTSTRAP_ATTEMPTS" default:"50"`
	BootstrapDelay    time.Duration `envconfig:"SCRIPT_BOOTSTRAP_DELAY" default:"50ms"`

	// Worker readiness wait and completion polling.
	WorkerStartupTimeout time.Duration `envconfig:"SCRIPT_WORKER_STARTUP_TIMEOUT" default:"5s"`
	AsyncPollInterval    time.Duration `envconfig:"SCRIPT_ASYNC_POLL_INTERVAL" default:"10ms"`

	// Default caller timeout for asynchronous executions.
	AsyncTimeout time.Duration `envconfig:"SCRIPT_ASYNC_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "4444",
			Host:           "0.0.0.0",
			RateLimitRPS:   100,
			RateLimitBurst: 200,
			RateLimited:    true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Engine: EngineConfig{
			BootstrapAttempts:    50,
			BootstrapDelay:       50 * time.Millisecond,
			WorkerStartupTimeout: 5 * time.Second,
			AsyncPollInterval:    10 * time.Millisecond,
			AsyncTimeout:         30 * time.Second,
		},
	}
}
