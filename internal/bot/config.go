package bot

import (
	"github.com/caarlos0/env/v11"
	"github.com/frostzzone/frost-music/internal/logging"
	"github.com/joho/godotenv"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string         `env:"DISCORD_TOKEN,notEmpty"`
	Log          logging.Config `envPrefix:"LOG_"`
}

// LoadConfig loads configuration from environment variables.
// Variables from a .env file in the working directory are applied first
// without overriding the environment.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	LoadDotEnv()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv applies an optional .env file. A missing file is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}
