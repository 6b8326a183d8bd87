package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgDB is the subset of *pgxpool.Pool the postgres backend needs.
type PgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores records in a shared postgres table so several kiosks
// can resume the same filters.
type PostgresBackend struct {
	db    PgDB
	close func()
}

// NewPostgresBackend connects a pool to dsn and ensures the table exists.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	b, err := NewPostgresBackendWithDB(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	b.close = pool.Close
	return b, nil
}

// NewPostgresBackendWithDB uses an existing connection (pool, conn or test stub).
func NewPostgresBackendWithDB(ctx context.Context, db PgDB) (*PostgresBackend, error) {
	if _, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS bullseye_filters (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return nil, fmt.Errorf("create bullseye_filters table: %w", err)
	}
	return &PostgresBackend{db: db, close: func() {}}, nil
}

// Get implements Backend.
func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := b.db.QueryRow(ctx, `SELECT payload FROM bullseye_filters WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select filter record: %w", err)
	}
	return []byte(payload), nil
}

// Put implements Backend.
func (b *PostgresBackend) Put(ctx context.Context, key string, payload []byte) error {
	_, err := b.db.Exec(ctx, `INSERT INTO bullseye_filters(key, payload, updated_at) VALUES($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`, key, string(payload))
	if err != nil {
		return fmt.Errorf("upsert filter record: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.Exec(ctx, `DELETE FROM bullseye_filters WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete filter record: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *PostgresBackend) Close() error {
	b.close()
	return nil
}
