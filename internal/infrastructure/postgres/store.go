// Package postgres provides the PostgreSQL relational store for employees and OTP tokens.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// DBTX is the query surface shared by a pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type poolIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store owns the connection pool and hands out transaction-scoped repositories.
type Store struct {
	pool           poolIface
	acquireTimeout time.Duration
}

// Open creates a fixed-capacity pool. It does not wait for the database; call Ping.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	pcfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	return NewStore(pool, cfg.DBAcquireTimeout), nil
}

// NewStore wraps an existing pool. A non-positive acquireTimeout waits indefinitely.
func NewStore(pool poolIface, acquireTimeout time.Duration) *Store {
	return &Store{pool: pool, acquireTimeout: acquireTimeout}
}

// WithTx runs fn in one transaction. It commits when fn returns nil and rolls
// back on error or panic; the underlying connection is released on every path.
func (s *Store) WithTx(ctx context.Context, fn func(domain.Repos) error) (err error) {
	beginCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.acquireTimeout > 0 {
		beginCtx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
	}
	tx, err := s.pool.Begin(beginCtx)
	cancel()
	if err != nil {
		return storageErr("TX_BEGIN_FAILED", "begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(ctx, tx)
			panic(p)
		}
		if err != nil {
			rollback(ctx, tx)
		}
	}()

	if err = fn(domain.Repos{
		Employees: NewEmployeeRepo(tx),
		OTPs:      NewOTPRepo(tx),
	}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return storageErr("TX_COMMIT_FAILED", "commit transaction", err)
	}
	return nil
}

// Ping checks that a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storageErr("DB_PING_FAILED", "ping", err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

func rollback(ctx context.Context, tx pgx.Tx) {
	// The caller's context may already be cancelled; the rollback must still run.
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("transaction rollback failed", "err", err)
	}
}

// storageErr classifies a driver error as a relational-store outage.
func storageErr(code, operation string, err error) error {
	return oops.Code(code).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err))
}

var _ domain.UnitOfWork = (*Store)(nil)
