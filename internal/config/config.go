package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment after
// an optional .env file is loaded.
type Config struct {
	Addr       string        `env:"ADDR" envDefault:":8080"`
	RoundDelay time.Duration `env:"ROUND_DELAY" envDefault:"3s"`

	// CatalogPath points at a JSON deck file; empty means the built-in deck.
	CatalogPath string `env:"CATALOG_PATH"`

	StartHP             int `env:"PLAYER_START_HP" envDefault:"100"`
	MainCardsPerHand    int `env:"MAIN_CARDS_PER_HAND" envDefault:"2"`
	SupportCardsPerHand int `env:"SUPPORT_CARDS_PER_HAND" envDefault:"2"`
	GambleAttempts      int `env:"GAMBLE_ATTEMPTS" envDefault:"3"`
}

func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if c.MainCardsPerHand < 1 || c.SupportCardsPerHand < 0 {
		return Config{}, fmt.Errorf("invalid hand configuration: %d main / %d support",
			c.MainCardsPerHand, c.SupportCardsPerHand)
	}
	return c, nil
}
