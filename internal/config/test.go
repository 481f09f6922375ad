package config

import "github.com/caarlos0/env/v11"

// TestConfig drives the database-backed tests. They are skipped when the DSN
// is missing.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
	// MigrationsDir overrides the upward search for the migrations directory.
	MigrationsDir string `env:"TEST_MIGRATIONS_DIR"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
