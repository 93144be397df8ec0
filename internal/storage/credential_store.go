// Package storage provides the durable SQLite credential store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	upsertCredential = `INSERT INTO credentials (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	selectCredential = `SELECT value FROM credentials WHERE key = ?`
	deleteCredential = `DELETE FROM credentials WHERE key = ?`
)

type SQLiteCredentialStore struct {
	db *sql.DB
}

// NewSQLiteCredentialStore opens (creating if needed) the database at dbPath
// and applies pending migrations.
func NewSQLiteCredentialStore(dbPath string) (*SQLiteCredentialStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteCredentialStore{db: db}, nil
}

func (s *SQLiteCredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteCredentialStore) Save(ctx context.Context, key, token string) error {
	if _, err := s.db.ExecContext(ctx, upsertCredential, key, token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *SQLiteCredentialStore) Retrieve(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectCredential, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("retrieve credential: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteCredentialStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteCredential, key); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
