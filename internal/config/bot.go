package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	TableURL string `env:"TABLE_URL" envDefault:"http://localhost:8080"`
	PlayerID string `env:"PLAYER_ID" envDefault:"bot"`
	Seat     int    `env:"SEAT" envDefault:"1"`
	BuyIn    int64  `env:"BUY_IN" envDefault:"100"`
	Deal     bool   `env:"DEAL" envDefault:"false"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
