package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	TableID     string        `env:"TABLE_ID"`
	SeatCount   int           `env:"SEAT_COUNT" envDefault:"6"`
	MailboxSize int           `env:"MAILBOX_SIZE" envDefault:"64"`
	BankTimeout time.Duration `env:"BANK_TIMEOUT" envDefault:"5s"`

	DepositRetryMax  int           `env:"DEPOSIT_RETRY_MAX" envDefault:"3"`
	DepositRetryBase time.Duration `env:"DEPOSIT_RETRY_BASE" envDefault:"200ms"`
	DrainTimeout     time.Duration `env:"DRAIN_TIMEOUT" envDefault:"10s"`

	Ante        int64 `env:"ANTE" envDefault:"10"`
	SeedBalance int64 `env:"SEED_BALANCE" envDefault:"1000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.SeatCount <= 0 {
		return cfg, errors.New("SEAT_COUNT must be positive")
	}
	if cfg.Ante <= 0 {
		return cfg, errors.New("ANTE must be positive")
	}
	return cfg, nil
}
