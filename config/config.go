package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"assetflow/lifecycle"
	"assetflow/overdue"
)

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL       string
	HTTPAddr          string
	JWTSecret         string
	DBMaxConns        int32
	ReturnHorizonDays int
	ScanInterval      time.Duration
	DedupWindow       time.Duration
	ScanWorkers       int
	WebhookURL        string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPAddr:          envString("HTTP_ADDR", ":8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		DBMaxConns:        int32(envInt("DB_MAX_CONNS", 0)),
		ReturnHorizonDays: envInt("RETURN_HORIZON_DAYS", lifecycle.DefaultHorizonDays),
		ScanInterval:      envDuration("SCAN_INTERVAL", 15*time.Minute),
		DedupWindow:       envDuration("DEDUP_WINDOW", overdue.DefaultWindow),
		ScanWorkers:       envInt("SCAN_WORKERS", 4),
		WebhookURL:        os.Getenv("NOTIFY_WEBHOOK_URL"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
