package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the host process settings
type Config struct {
	Port        string
	DBType      string
	DatabaseURL string
	DBFile      string
	TickRate    int   // steps per second
	Seed        int64 // 0 means seed from the clock
	ThemesFile  string
}

// FromEnv reads the configuration from environment variables, applying defaults
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DBType:      getenv("DB_TYPE", "json"),
		DatabaseURL: getenv("DATABASE_URL", "host=localhost user=runedeep password=runedeep dbname=runedeep sslmode=disable"),
		DBFile:      getenv("DB_FILE", "db.json"),
		TickRate:    60,
		ThemesFile:  os.Getenv("THEMES_FILE"),
	}

	if v := os.Getenv("TICK_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate < 1 || rate > 240 {
			return nil, fmt.Errorf("invalid TICK_RATE %q: must be 1-240", v)
		}
		cfg.TickRate = rate
	}
	if v := os.Getenv("SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED %q: %w", v, err)
		}
		cfg.Seed = seed
	}

	return cfg, nil
}

// TickInterval is the wall-clock duration between simulation steps
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SeedFor returns the configured seed, or a clock-derived one when unset
func (c *Config) SeedFor(now time.Time) int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return now.UnixNano()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
