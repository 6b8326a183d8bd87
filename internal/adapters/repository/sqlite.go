package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteBackend stores records in a single key/value table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (creating if needed) the database at path.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if path == "" {
		path = "bullseye.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps last-write-wins trivially true.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS filters (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create filters table: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Get implements Backend.
func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM filters WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select filter record: %w", err)
	}
	return payload, nil
}

// Put implements Backend.
func (b *SQLiteBackend) Put(ctx context.Context, key string, payload []byte) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO filters(key, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`, key, payload)
	if err != nil {
		return fmt.Errorf("upsert filter record: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM filters WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete filter record: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Path returns the database file location.
func (b *SQLiteBackend) Path() string { return b.path }
