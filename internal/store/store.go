package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so loaders and
// writers can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	ErrNotFound    = errors.New("record not found")
	ErrLockTimeout = errors.New("row lock wait timed out")
)

// WithTx runs fn inside one transaction with a bounded lock wait. A
// mutation that cannot get its order row within lockTimeout fails fast with
// ErrLockTimeout instead of queueing indefinitely.
func WithTx(ctx context.Context, db *pgxpool.Pool, lockTimeout time.Duration, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if lockTimeout > 0 {
		// set local cannot be parameterized
		stmt := fmt.Sprintf("set local lock_timeout = '%dms'", lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	if err := fn(ctx, tx); err != nil {
		if isLockTimeout(err) {
			return ErrLockTimeout
		}
		return err
	}
	return tx.Commit(ctx)
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03"
	}
	return false
}

func numericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	f, err := value.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}
