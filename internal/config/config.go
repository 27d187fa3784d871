// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken       string        `env:"DISCORD_TOKEN"`
	StoragePath        string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	CommandPrefix      string        `env:"COMMAND_PREFIX" envDefault:"!cc"`
	AIProvider         string        `env:"AI_PROVIDER" envDefault:"g4f"`
	IntegrationTimeout time.Duration `env:"INTEGRATION_TIMEOUT" envDefault:"10s"`
	LoopLimit          int           `env:"LOOP_LIMIT" envDefault:"20"`
	DeveloperID        string        `env:"DEVELOPER_ID"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("Failed to parse config:", err)
	}

	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is not set")
	}

	return cfg
}
