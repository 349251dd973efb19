package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTxConflict is returned when the store aborted a transaction because a
// concurrent one touched the same rows (serialization failure, deadlock,
// lock not available). Callers translate it into a domain conflict.
var ErrTxConflict = errors.New("transaction conflict")

// PostgreSQL SQLSTATE codes
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

// TxFunc is executed inside a transaction
type TxFunc func(pgx.Tx) error

// WithTransaction wraps fn in a transaction begun on pool.
// Rolls back when fn returns an error or panics, commits otherwise.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn TxFunc) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return translateConflict(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return translateConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// ========================================
// CONTEXT-SCOPED TRANSACTIONS
// ========================================

// Transactor runs fn as one atomic unit. The context handed to fn carries the
// transaction; repositories pick it up with QuerierFrom.
// Nested calls join the outer transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// ContextWithTx stores tx on ctx.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// QuerierFrom returns the active transaction when there is one, pool otherwise.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

// PoolTransactor implements Transactor on top of a pgx pool.
type PoolTransactor struct {
	pool *pgxpool.Pool
}

func NewPoolTransactor(pool *pgxpool.Pool) *PoolTransactor {
	return &PoolTransactor{pool: pool}
}

func (t *PoolTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return WithTransaction(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// WithTransactionResult runs fn through tr and returns its value.
func WithTransactionResult[T any](ctx context.Context, tr Transactor, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := tr.InTx(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// ========================================
// ERROR HELPERS
// ========================================

// PgErrorCode returns the SQLSTATE of err, or "" when err is not a PgError.
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// PgConstraint returns the violated constraint name, or "".
func PgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsConflict reports whether err means a concurrent transaction won.
func IsConflict(err error) bool {
	if errors.Is(err, ErrTxConflict) {
		return true
	}
	switch PgErrorCode(err) {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return true
	}
	return false
}

func translateConflict(err error) error {
	if err == nil || errors.Is(err, ErrTxConflict) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%w: %v", ErrTxConflict, err)
	}
	return err
}
