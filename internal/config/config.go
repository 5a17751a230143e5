package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Accuracy tiers map to the worst fix accuracy, in meters, the tracker accepts.
var accuracyTiers = map[string]float64{
	"high":     25,
	"balanced": 100,
	"low":      500,
}

type Config struct {
	Port        string        `env:"PORT"         envDefault:"8080"`
	DBDriver    string        `env:"DB_DRIVER"    envDefault:"sqlite3"`
	DBDSN       string        `env:"DB_DSN"       envDefault:"./data/placetime.db"`
	JWTSecret   string        `env:"JWT_SECRET"   envDefault:"change-this-secret"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"    envDefault:"72h"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://127.0.0.1:5173" envSeparator:","`
	Timezone    string        `env:"TIMEZONE"     envDefault:"Local"`
	FixInterval time.Duration `env:"FIX_INTERVAL" envDefault:"30s"`
	FixAccuracy string        `env:"FIX_ACCURACY" envDefault:"balanced"`
}

// Load reads the process environment. Variables from a .env file in the working
// directory are applied first without overriding ones that are already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSOrigins = trimList(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if _, ok := accuracyTiers[c.FixAccuracy]; !ok {
		return fmt.Errorf("unsupported FIX_ACCURACY %q", c.FixAccuracy)
	}
	if c.FixInterval < 0 {
		return fmt.Errorf("FIX_INTERVAL must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE; week buckets are computed in it.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) MaxFixAccuracyMeters() float64 {
	return accuracyTiers[c.FixAccuracy]
}

func trimList(values []string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
