package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	MongoDB    MongoDBConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Moderation ModerationConfig
	RateLimit  RateLimitConfig
	LogLevel   string
	LogFormat  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	BaseURL        string
	Mode           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// StoreConfig selects the persistence backend ("mongodb" or "memory")
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// RedisConfig holds the session revocation cache configuration.
// An empty URL disables revocation.
type RedisConfig struct {
	URL string
}

// KafkaConfig holds the moderation event publisher configuration.
// No brokers means events are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ModerationConfig holds blacklist defaults and the hygiene sweep settings
type ModerationConfig struct {
	DefaultBlacklistDays int
	SweepEnabled         bool
	SweepInterval        time.Duration
}

// RateLimitConfig holds per-client limits for the auth endpoints
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoadConfig loads configuration from a .env file, an optional config.yaml
// found in path (or path/config) and the environment, in increasing order of
// precedence.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(path + "/config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT secret is required (JWT_SECRET)")
	}
	switch c.Store.Driver {
	case "mongodb":
		if c.MongoDB.URI == "" {
			return errors.New("config: MongoDB URI is required (MONGODB_URI)")
		}
		if c.MongoDB.Database == "" {
			return errors.New("config: MongoDB database is required (MONGODB_DATABASE)")
		}
	case "memory":
	default:
		return errors.New("config: store driver must be mongodb or memory")
	}
	if c.Moderation.DefaultBlacklistDays <= 0 {
		return errors.New("config: moderation default blacklist days must be positive")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.Mode", "debug")
	v.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("Server.ReadTimeout", 15*time.Second)
	v.SetDefault("Server.WriteTimeout", 15*time.Second)
	v.SetDefault("Store.Driver", "mongodb")
	v.SetDefault("MongoDB.Database", "marketplace")
	v.SetDefault("MongoDB.ConnectTimeout", 10*time.Second)
	v.SetDefault("JWT.ExpiresIn", 24*time.Hour)
	v.SetDefault("Kafka.Topic", "marketplace.moderation")
	v.SetDefault("Moderation.DefaultBlacklistDays", 30)
	v.SetDefault("Moderation.SweepEnabled", false)
	v.SetDefault("Moderation.SweepInterval", time.Hour)
	v.SetDefault("RateLimit.RPS", 1.0)
	v.SetDefault("RateLimit.Burst", 5)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
}

// bindEnv maps the flat environment names used by deployments onto config
// keys. Server.BaseURL accepts both API_BASE_URL and BACKEND_API_URL; the
// first one set wins.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"Server.Port":                     {"PORT", "SERVER_PORT"},
		"Server.BaseURL":                  {"API_BASE_URL", "BACKEND_API_URL"},
		"Server.Mode":                     {"GIN_MODE"},
		"Store.Driver":                    {"STORE_DRIVER"},
		"MongoDB.URI":                     {"MONGODB_URI"},
		"MongoDB.Database":                {"MONGODB_DATABASE"},
		"JWT.Secret":                      {"JWT_SECRET"},
		"JWT.ExpiresIn":                   {"JWT_EXPIRES_IN"},
		"Redis.URL":                       {"REDIS_URL"},
		"Kafka.Brokers":                   {"KAFKA_BROKERS"},
		"Kafka.Topic":                     {"KAFKA_TOPIC"},
		"Moderation.DefaultBlacklistDays": {"BLACKLIST_DEFAULT_DAYS"},
		"Moderation.SweepEnabled":         {"BLACKLIST_SWEEP_ENABLED"},
		"Moderation.SweepInterval":        {"BLACKLIST_SWEEP_INTERVAL"},
		"LogLevel":                        {"LOG_LEVEL"},
		"LogFormat":                       {"LOG_FORMAT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}
