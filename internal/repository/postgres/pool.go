// Package postgres backs the unit ledger, the credential registry and the
// alert store with PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the slice of pgxpool.Pool the ledger and registry repositories
// need. pgxmock.PgxPoolIface satisfies it too, which is what the repository
// tests run against.
type PgxPool interface {
	// Exec runs a statement and returns its command tag; ledger writes
	// inspect RowsAffected on it to detect lost compare-and-set races.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query runs a SELECT and returns the rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow runs a query expected to yield at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx opens a transaction; carton activation locks all member
	// units inside one.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close releases the pool.
	Close()
}

// DB carries the shared pool handed to every repository constructor.
type DB struct{ Pool PgxPool }

// New dials the database behind dsn and returns the shared handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close releases the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

// isUniqueViolation matches Postgres error 23505, raised when an id or
// (role, login_id) pair collides with an existing row.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}
