package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	pkgdb "library-backend/pkg/database"
)

var ErrPoolNotInitialized = errors.New("database pool is not initialized")

// DBConfig holds everything needed to open the PostgreSQL pool.
type DBConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DBName   string
	SSLMode  string

	// Pool
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// Retry
	MaxRetries     int
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
}

// DSN renders the config as a postgres:// URL, usable by pgx and golang-migrate.
func (c *DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// PostgresDB owns the connection pool and its lifecycle.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config *DBConfig
}

func NewPostgresDB(config *DBConfig) *PostgresDB {
	return &PostgresDB{Config: config}
}

func (db *PostgresDB) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(db.Config.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pc.MaxConns = db.Config.MaxConns
	pc.MinConns = db.Config.MinConns
	pc.MaxConnLifetime = db.Config.MaxConnLifetime
	pc.MaxConnIdleTime = db.Config.MaxConnIdleTime
	pc.HealthCheckPeriod = db.Config.HealthCheckPeriod
	pc.ConnConfig.ConnectTimeout = db.Config.ConnectTimeout
	return pc, nil
}

// Connect opens the pool, retrying with exponential backoff
// (RetryDelay * 2^(attempt-1)) until MaxRetries attempts have failed.
func (db *PostgresDB) Connect(ctx context.Context) error {
	pc, err := db.poolConfig()
	if err != nil {
		return err
	}

	attempts := max(db.Config.MaxRetries, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err := db.open(ctx, pc)
		if err == nil {
			db.Pool = pool
			log.Info().
				Str("host", db.Config.Host).
				Str("database", db.Config.DBName).
				Int("attempt", attempt).
				Msg("postgres connected")
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := db.Config.RetryDelay * time.Duration(1<<uint(attempt-1))
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("retry_in", delay).
			Msg("postgres connect failed")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("connect cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("connect after %d attempts: %w", attempts, lastErr)
}

func (db *PostgresDB) open(ctx context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, db.Config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// HealthCheck pings the database within 5 seconds.
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	if db.Pool == nil {
		return ErrPoolNotInitialized
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(healthCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Transactor exposes the pool as a context scoped transaction runner.
func (db *PostgresDB) Transactor() pkgdb.Transactor {
	return pkgdb.NewPoolTransactor(db.Pool)
}

// Close closes the pool. Safe to call more than once.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		return nil
	}
	db.Pool.Close()
	db.Pool = nil
	log.Info().Msg("postgres pool closed")
	return nil
}
