package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Fiat rate service
	FiatRateURL         string        `env:"FIAT_RATE_URL"          envDefault:"https://api.frankfurter.dev/v1"`
	FiatRateTimeout     time.Duration `env:"FIAT_RATE_TIMEOUT"      envDefault:"10s"`
	FiatRateMaxRetries  int           `env:"FIAT_RATE_MAX_RETRIES"  envDefault:"3"`
	FiatRateRateLimit   float64       `env:"FIAT_RATE_RATE_LIMIT"   envDefault:"5"`
	FiatRateCacheExpiry time.Duration `env:"FIAT_RATE_CACHE_EXPIRY" envDefault:"24h"`

	// Conversion defaults; the CLI flags override them per run
	AccountCurrency string `env:"ACCOUNT_CURRENCY" envDefault:"EUR"`
	StakingAsset    string `env:"STAKING_ASSET"    envDefault:"DFI"`
	Language        string `env:"LANGUAGE"         envDefault:"en"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
