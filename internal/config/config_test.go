package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_TYPE", "KID_SESSION_DURATION", "UPCOMING_DAYS", "DEBUG", "LOCALE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 12*time.Hour, cfg.KidSessionDuration)
	assert.Equal(t, 1, cfg.UpcomingDays)
	assert.Equal(t, "pl", cfg.Locale)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.EmailEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/routines")
	t.Setenv("KID_SESSION_DURATION", "30m")
	t.Setenv("UPCOMING_DAYS", "3")
	t.Setenv("DEBUG", "true")
	t.Setenv("SES_FROM_EMAIL", "noreply@example.com")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 30*time.Minute, cfg.KidSessionDuration)
	assert.Equal(t, 3, cfg.UpcomingDays)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.EmailEnabled())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("UPCOMING_DAYS", "many")
	t.Setenv("MATERIALIZE_INTERVAL", "hourly")

	cfg := Load()
	assert.Equal(t, 1, cfg.UpcomingDays)
	assert.Equal(t, time.Hour, cfg.MaterializeInterval)
}

func validConfig() *Config {
	return &Config{
		DatabaseType:        "sqlite",
		DatabasePath:        "./test.db",
		SessionSecret:       "0123456789abcdef0123456789abcdef",
		KidSessionDuration:  time.Hour,
		DefaultTimezone:     "Europe/Warsaw",
		UpcomingDays:        1,
		MaterializeInterval: time.Hour,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "SESSION_SECRET"},
		{"bad zone", func(c *Config) { c.DefaultTimezone = "Mars/Base" }, "DEFAULT_TIMEZONE"},
		{"postgres without url", func(c *Config) { c.DatabaseType = "postgres" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.DatabaseType = "oracle" }, "unsupported DB_TYPE"},
		{"negative horizon", func(c *Config) { c.UpcomingDays = -1 }, "UPCOMING_DAYS"},
		{"tight ticker", func(c *Config) { c.MaterializeInterval = time.Second }, "MATERIALIZE_INTERVAL"},
	}

	t.Run("debug tolerates a missing secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionSecret = ""
		cfg.Debug = true
		assert.NoError(t, cfg.Validate())
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
