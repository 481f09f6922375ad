package config

// AppConfig is everything the table server reads at startup.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{Server: serverCfg, Log: logCfg}, nil
}

// UsesPostgres reports whether the bank should be backed by the database
// instead of the in-memory ledger.
func (c AppConfig) UsesPostgres() bool {
	return c.Server.PostgresDSN != ""
}
