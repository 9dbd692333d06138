package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	RunAddress string `env:"RUN_ADDRESS" envDefault:":8080"`

	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// Session configuration
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Ledger configuration
	ReferralReward   int64 `env:"REFERRAL_REWARD" envDefault:"100"`
	MinWithdrawal    int64 `env:"MIN_WITHDRAWAL" envDefault:"500"`
	WithdrawalCharge int64 `env:"WITHDRAWAL_CHARGE" envDefault:"50"`

	// Optional admin account created at startup
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	if cfg.MinWithdrawal <= 0 {
		return nil, fmt.Errorf("MIN_WITHDRAWAL must be positive")
	}
	if cfg.WithdrawalCharge < 0 {
		return nil, fmt.Errorf("WITHDRAWAL_CHARGE must not be negative")
	}
	if cfg.ReferralReward <= 0 {
		return nil, fmt.Errorf("REFERRAL_REWARD must be positive")
	}

	return cfg, nil
}
