package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "TOKEN_TTL", "CORS_ORIGINS", "TIMEZONE", "FIX_INTERVAL", "FIX_ACCURACY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != DriverSQLite {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 72*time.Hour || cfg.FixInterval != 30*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected default origins, got %v", cfg.CORSOrigins)
	}
	if cfg.MaxFixAccuracyMeters() != 100 {
		t.Fatalf("expected balanced tier, got %f", cfg.MaxFixAccuracyMeters())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/placetime?sslmode=disable")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("FIX_INTERVAL", "1m")
	t.Setenv("FIX_ACCURACY", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("driver = %s", cfg.DBDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location = %v, %v", loc, err)
	}
	if cfg.FixInterval != time.Minute || cfg.MaxFixAccuracyMeters() != 25 {
		t.Fatalf("fix settings = %v %f", cfg.FixInterval, cfg.MaxFixAccuracyMeters())
	}
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}

	t.Setenv("DB_DRIVER", "")
	t.Setenv("FIX_ACCURACY", "extreme")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown accuracy tier")
	}
}
