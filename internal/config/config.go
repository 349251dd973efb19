package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

// Config holds the application configuration, populated from environment variables.
type Config struct {
	App     AppConfig
	Storage StorageConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Name           string
	Environment    string // development, staging, production
	Port           string
	Version        string
	AllowedOrigins []string
}

// StorageConfig selects the catalog store and cache backends.
type StorageConfig struct {
	Driver      string // postgres | memory
	CacheDriver string // redis | memory
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// AuthConfig tunes password hashing and login throttling.
type AuthConfig struct {
	BcryptCost       int
	MaxLoginAttempts int
	LockoutMinutes   int
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Library API"),
			Environment:    getEnv("APP_ENV", "development"),
			Port:           getEnv("APP_PORT", "8080"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			CacheDriver: strings.ToLower(getEnv("CACHE_DRIVER", DriverRedis)),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
		},
		Auth: AuthConfig{
			BcryptCost:       getEnvInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts: getEnvInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutMinutes:   getEnvInt("AUTH_LOCKOUT_MINUTES", 15),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the config is usable
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}

	switch c.Storage.CacheDriver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("CACHE_DRIVER must be %q or %q, got %q", DriverRedis, DriverMemory, c.Storage.CacheDriver)
	}

	if c.JWT.AccessTokenExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY must be positive")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Storage.Driver == DriverMemory {
			return fmt.Errorf("DB_DRIVER=memory is not allowed in production")
		}
		if getEnv("DB_PASSWORD", "") == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
