package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/easytrack.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"Europe/Kyiv"` // wall clock for reminder sweeps
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`         // debug|info|warn|error
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`        // healthz
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
