package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"library-backend/internal/infrastructure/database"
)

// envReader collects every malformed variable instead of stopping at the first.
type envReader struct {
	errs []error
}

func (r *envReader) integer(key string, def int) int {
	raw := getEnv(key, strconv.Itoa(def))
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return def
	}
	return v
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, def.String())
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return def
	}
	return v
}

// LoadDatabaseConfig reads the DB_* variables used by the postgres driver
// and the migrate command.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	var env envReader

	cfg := &database.DBConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              env.integer("DB_PORT", 5432),
		Username:          getEnv("DB_USER", "library"),
		Password:          getEnv("DB_PASSWORD", "secret"),
		DBName:            getEnv("DB_NAME", "library_dev"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(env.integer("DB_MAX_CONNECTIONS", 25)),
		MinConns:          int32(env.integer("DB_MIN_CONNECTIONS", 5)),
		MaxConnLifetime:   env.duration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   env.duration("DB_MAX_CONN_IDLE_TIME", time.Minute),
		HealthCheckPeriod: env.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		MaxRetries:        env.integer("DB_MAX_RETRIES", 5),
		RetryDelay:        env.duration("DB_RETRY_DELAY", time.Second),
		ConnectTimeout:    env.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", cfg.MinConns, cfg.MaxConns)
	}
	return cfg, nil
}
