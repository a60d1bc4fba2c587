// Package metastore is the relational persistence layer for users,
// projects, and handlers: referential integrity and name-uniqueness are
// enforced by the schema, not by application code.
package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Pool wraps a *sql.DB opened against a single sqlite file. sqlite allows
// only one writer at a time, so the pool is capped at a single open
// connection to serialize writers rather than let the driver queue them
// behind lock-contention errors.
type Pool struct {
	db *sql.DB
}

// Queryer is the subset of *sql.DB / *sql.Tx that repositories need.
// *Pool and Tx both satisfy it, so repository methods that accept a
// Queryer work identically inside or outside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a Queryer bound to an in-flight transaction.
type Tx = Queryer

// Open opens (creating if absent) the sqlite database at path and applies
// the schema idempotently.
func Open(ctx context.Context, path string) (*Pool, error) {
	if path == "" {
		return nil, errors.New("metastore: database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("metastore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("metastore: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("metastore: apply schema: %w", err)
	}

	return &Pool{db: db}, nil
}

// ExecContext, QueryContext, QueryRowContext delegate directly to the
// underlying *sql.DB for callers operating outside a transaction.
func (p *Pool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

func (p *Pool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

func (p *Pool) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction: rolled back if fn errors, committed
// otherwise.
func (p *Pool) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metastore: begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			LogTransactionError(ctx, "rollback", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metastore: commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (p *Pool) Close() error {
	return p.db.Close()
}
