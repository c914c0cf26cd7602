package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the reservation
// service.
type Config struct {
	HTTPPort             int
	SQLiteDSN            string
	ShutdownTimeout      time.Duration
	AvailabilityCacheTTL time.Duration
}

// Load parses configuration from the process environment. A .env file in the
// working directory is merged in first when present; variables already set on
// the process are never overridden.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:             8080,
		SQLiteDSN:            "file:reservations.db?_txlock=immediate",
		ShutdownTimeout:      10 * time.Second,
		AvailabilityCacheTTL: 30 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVATION_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "RESERVATION_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVATION_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("RESERVATION_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "RESERVATION_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVATION_AVAILABILITY_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "RESERVATION_AVAILABILITY_CACHE_TTL")
		} else {
			cfg.AvailabilityCacheTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
