package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration for the daemon and viewer,
// loaded from TRANSIT_* environment variables
type Config struct {
	// DBPath is the sqlite static-data database; empty selects the
	// built-in demo dataset
	DBPath string `env:"TRANSIT_DB"`

	// TickInterval is the fixed simulation step
	TickInterval time.Duration `env:"TRANSIT_TICK_INTERVAL" envDefault:"100ms"`

	// StatusInterval is how often the daemon dumps metrics
	StatusInterval time.Duration `env:"TRANSIT_STATUS_INTERVAL" envDefault:"10s"`

	// Partitions lists the partition ids to bring online at start
	Partitions []uint32 `env:"TRANSIT_PARTITIONS" envSeparator:"," envDefault:"1,2"`

	// Parallel ticks partitions on separate goroutines
	Parallel bool `env:"TRANSIT_PARALLEL" envDefault:"false"`

	// Sound enables viewer chimes on arrival/departure triggers
	Sound bool `env:"TRANSIT_SOUND" envDefault:"true"`
}

// Load parses the environment into a Config
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval must be positive, got %v", cfg.TickInterval)
	}
	if len(cfg.Partitions) == 0 {
		return Config{}, fmt.Errorf("at least one partition required")
	}
	return cfg, nil
}
