package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "SERVER_PORT", "API_BASE_URL", "BACKEND_API_URL", "REDIS_URL", "KAFKA_BROKERS", "MONGODB_DATABASE"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "mongodb")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "marketplace", cfg.MongoDB.Database)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 30, cfg.Moderation.DefaultBlacklistDays)
	assert.False(t, cfg.Moderation.SweepEnabled)
	assert.Equal(t, time.Hour, cfg.Moderation.SweepInterval)
	assert.Equal(t, "marketplace.moderation", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("BACKEND_API_URL", "https://api.example.com")
	t.Setenv("BLACKLIST_DEFAULT_DAYS", "7")
	t.Setenv("BLACKLIST_SWEEP_ENABLED", "true")
	t.Setenv("BLACKLIST_SWEEP_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 7, cfg.Moderation.DefaultBlacklistDays)
	assert.True(t, cfg.Moderation.SweepEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Moderation.SweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigBaseURLPrefersAPIBaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("API_BASE_URL", "https://primary.example.com")
	t.Setenv("BACKEND_API_URL", "https://secondary.example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://primary.example.com", cfg.Server.BaseURL)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	setBaseEnv(t)
	dir := t.TempDir()
	yaml := "server:\n  port: \"9090\"\nmoderation:\n  defaultblacklistdays: 14\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 14, cfg.Moderation.DefaultBlacklistDays)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:      StoreConfig{Driver: "mongodb"},
			MongoDB:    MongoDBConfig{URI: "mongodb://localhost", Database: "marketplace"},
			JWT:        JWTConfig{Secret: "secret"},
			Moderation: ModerationConfig{DefaultBlacklistDays: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT secret"},
		{name: "missing mongo uri", mutate: func(c *Config) { c.MongoDB.URI = "" }, wantErr: "MONGODB_URI"},
		{name: "memory needs no mongo", mutate: func(c *Config) {
			c.Store.Driver = "memory"
			c.MongoDB = MongoDBConfig{}
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: "store driver"},
		{name: "non-positive blacklist days", mutate: func(c *Config) { c.Moderation.DefaultBlacklistDays = 0 }, wantErr: "blacklist days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
