package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	// OwnerID is the Telegram user the agent serves. Messages from
	// anyone else are never treated as commands.
	OwnerID int64 `envconfig:"OWNER_ID" required:"true"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath      string `envconfig:"DB_PATH" default:"./data/lp.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// DataDir stores downloaded voice clips and video notes.
	DataDir string `envconfig:"DATA_DIR" default:"./data/media"`

	WeatherAPIKey string `envconfig:"WEATHER_API_KEY"`
	WhoisAPIKey   string `envconfig:"WHOIS_API_KEY"`
	NasaAPIKey    string `envconfig:"NASA_API_KEY"`

	FFmpegPath string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz
}

// Load reads environment variables into Config.
func Load() (cfg Config, err error) {
	if err = envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
