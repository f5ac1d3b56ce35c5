package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort          string
	DatabaseType        string
	DatabasePath        string
	DatabaseURL         string
	MigrationsPath      string
	SessionSecret       string
	KidSessionDuration  time.Duration
	DefaultTimezone     string
	Locale              string
	UpcomingDays        int
	MaterializeInterval time.Duration
	AWSRegion           string
	SESFromEmail        string
	SESFromName         string
	AppBaseURL          string
	LogLevel            string
	Debug               bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:          getEnv("PORT", "8080"),
		DatabaseType:        getEnv("DB_TYPE", "sqlite"),
		DatabasePath:        getEnv("DB_PATH", "./routineboard.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		KidSessionDuration:  getEnvDuration("KID_SESSION_DURATION", 12*time.Hour),
		DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "Europe/Warsaw"),
		Locale:              getEnv("LOCALE", "pl"),
		UpcomingDays:        getEnvInt("UPCOMING_DAYS", 1),
		MaterializeInterval: getEnvDuration("MATERIALIZE_INTERVAL", time.Hour),
		AWSRegion:           getEnv("AWS_REGION", "eu-central-1"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "Routine Board"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Debug:               getEnvBool("DEBUG", false),
	}
}

// Validate reports configuration that would make the server misbehave
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_TYPE %q", c.DatabaseType))
	}

	if !c.Debug && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters"))
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}
	if c.KidSessionDuration <= 0 {
		errs = append(errs, errors.New("KID_SESSION_DURATION must be positive"))
	}
	if c.UpcomingDays < 0 {
		errs = append(errs, errors.New("UPCOMING_DAYS must not be negative"))
	}
	if c.MaterializeInterval < time.Minute {
		errs = append(errs, errors.New("MATERIALIZE_INTERVAL must be at least 1m"))
	}

	return errors.Join(errs...)
}

// EmailEnabled reports whether outbound notifications are configured
func (c *Config) EmailEnabled() bool {
	return c.SESFromEmail != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
