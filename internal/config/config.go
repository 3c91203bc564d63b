package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"

	// DefaultJWTSecret is only fit for local development.
	DefaultJWTSecret = "dev-secret-change-me"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// StoreDriver selects where live rounds are kept.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"redis"`

	// DatabaseURL enables the Postgres archive of revealed rounds when set.
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RoundTTL time.Duration `env:"ROUND_TTL" envDefault:"168h"`

	// RateLimitRounds caps round commits and starts per player per minute.
	RateLimitRounds int `env:"RATE_LIMIT_ROUNDS" envDefault:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverRedis, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 || c.RoundTTL <= 0 {
		return fmt.Errorf("JWT_TTL and ROUND_TTL must be positive")
	}
	if c.RateLimitRounds <= 0 {
		return fmt.Errorf("RATE_LIMIT_ROUNDS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
