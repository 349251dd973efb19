package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/user"
	"library-backend/pkg/cache"
	pkgdb "library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const userCacheTTL = 15 * time.Minute

type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

// NewPostgresRepository returns a user.Repository backed by PostgreSQL with
// a cache-aside layer on FindByID. cache may be nil.
func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) user.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

func userCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// ========================================
// BASIC CRUD OPERATIONS
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, username, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := pkgdb.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		u.ID,
		u.Username,
		u.Name,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if pkgdb.PgErrorCode(err) == pkgdb.CodeUniqueViolation {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID reads through the cache. Cache failures only cost a database hit.
func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cacheKey := userCacheKey(id)

	if r.cache != nil {
		var cached user.User
		found, err := r.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("user cache read failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		} else if found {
			return &cached, nil
		}
	}

	query := `
		SELECT id, username, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(pkgdb.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		// password hash is excluded from JSON, the cached copy is profile only
		if err := r.cache.Set(ctx, cacheKey, u, userCacheTTL); err != nil {
			logger.Warn("user cache write failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		}
	}

	return u, nil
}

func (r *postgresRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `
		SELECT id, username, name, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(username) = $1
	`
	return scanUser(pkgdb.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, user.NormalizeUsername(username)))
}

func (r *postgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = $1)`

	var exists bool
	if err := pkgdb.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, user.NormalizeUsername(username)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
