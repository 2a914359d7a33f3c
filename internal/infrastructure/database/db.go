package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crepmaster/pharmapp/pkg/config"
	"github.com/crepmaster/pharmapp/pkg/db"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Repository
// methods take a caller-supplied Querier so a whole business operation runs in
// one transaction; repositories never open their own.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs a function inside one atomic transaction. All reads a unit of
// work needs must happen before its first write.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}

type Manager struct {
	Pool *pgxpool.Pool
}

func New(cfg *config.DatabaseConfig) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(db.GetDBDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid conn_max_lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Manager{Pool: pool}, nil
}

// WithinTx opens a repeatable-read transaction, runs fn, and commits. Any
// error from fn rolls the whole unit back; no partial writes survive.
func (m *Manager) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := m.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

func (m *Manager) ShutDown() {
	if m.Pool != nil {
		m.Pool.Close()
	}
}
