// Package config loads the demo binary's settings from the environment, after
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrParsingConfig = errors.New("failed to parse config")
	ErrInvalidConfig = errors.New("invalid config")
)

// Demo configures cmd/demo.
type Demo struct {
	TickRate time.Duration `env:"DEMO_TICK_RATE" envDefault:"16ms"`
	// Fare is the credit the coded turnstile needs before it unlocks.
	Fare int `env:"DEMO_FARE" envDefault:"50"`
	// Coins is the sequence of coins the demo inserts.
	Coins []int `env:"DEMO_COINS" envSeparator:"," envDefault:"10,20,20,50"`
	// Definition is an optional YAML or JSON machine definition to run
	// instead of the coded turnstile.
	Definition string `env:"DEMO_DEFINITION"`
	// Steps is how many events the demo sends to a loaded definition.
	Steps int `env:"DEMO_STEPS" envDefault:"8"`
	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090".
	MetricsAddr string `env:"DEMO_METRICS_ADDR"`

	LogLevel  string `env:"LOGGING_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOGGING_FORMAT" envDefault:"CONSOLE"`
}

// Load reads files with godotenv, skipping ones that do not exist, then parses
// the environment. With no files it tries ".env".
func Load(files ...string) (Demo, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Demo{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Demo]()
	if err != nil {
		return Demo{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Demo{}, err
	}
	return cfg, nil
}

// Validate checks value ranges env tags cannot express.
func (d Demo) Validate() error {
	if d.TickRate <= 0 {
		return fmt.Errorf("%w: DEMO_TICK_RATE must be positive, got %s", ErrInvalidConfig, d.TickRate)
	}
	if d.Fare <= 0 {
		return fmt.Errorf("%w: DEMO_FARE must be positive, got %d", ErrInvalidConfig, d.Fare)
	}
	if d.Steps < 0 {
		return fmt.Errorf("%w: DEMO_STEPS must not be negative, got %d", ErrInvalidConfig, d.Steps)
	}
	for i, c := range d.Coins {
		if c <= 0 {
			return fmt.Errorf("%w: DEMO_COINS[%d] must be positive, got %d", ErrInvalidConfig, i, c)
		}
	}
	return nil
}
