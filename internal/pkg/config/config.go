package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Store StoreConfig
	Mongo MongoConfig
	Redis RedisConfig
	OTel  OTelConfig
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET, required"`
	// TokenTTL of zero issues tokens without an expiry claim.
	TokenTTL time.Duration `env:"TOKEN_TTL, default=24h"`
	// TasksRequireAuth puts the /tasks routes behind the auth gate.
	TasksRequireAuth bool `env:"TASKS_REQUIRE_AUTH, default=false"`
}

type StoreConfig struct {
	Timeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_management"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	// CacheTTL of zero disables the task cache.
	CacheTTL time.Duration `env:"CACHE_TTL, default=5m"`
}

type OTelConfig struct {
	// Endpoint is an OTLP/HTTP URL; tracing stays off when empty.
	Endpoint string `env:"OTEL_ENDPOINT"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.Redis.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}
	return nil
}
