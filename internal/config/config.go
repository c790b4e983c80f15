// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the API process.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret   []byte
	CORSOrigins []string

	LogLevel  slog.Level
	LogFormat string

	PersistRetries      int
	PersistRetryBackoff time.Duration

	// CommandSections are the route-section names that belong to the command group.
	CommandSections []string

	// RecordsLocation is the zone retention cutoffs are computed in.
	RecordsLocation *time.Location
}

const devJWTSecret = "default_super_secret_key" // Development fallback only

// Load reads envFile when present, then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Info("no env file loaded", "path", envFile)
		}
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "postgres"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		CommandSections: splitList(getEnv("COMMAND_SECTIONS", "XO,SgtMaj,CoS")),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	retries, err := strconv.Atoi(getEnv("PERSIST_RETRIES", "3"))
	if err != nil || retries < 1 {
		return nil, fmt.Errorf("invalid PERSIST_RETRIES: %q", os.Getenv("PERSIST_RETRIES"))
	}
	cfg.PersistRetries = retries

	backoff, err := time.ParseDuration(getEnv("PERSIST_RETRY_BACKOFF", "100ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid PERSIST_RETRY_BACKOFF: %w", err)
	}
	cfg.PersistRetryBackoff = backoff

	loc, err := time.LoadLocation(getEnv("RECORDS_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECORDS_TIMEZONE: %w", err)
	}
	cfg.RecordsLocation = loc

	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", v)
	}
}
