package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mindkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/mindkeeper/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteKV persists keys in the kv table of a local SQLite database.
type SQLiteKV struct {
	db    *sql.DB
	quota int64
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the database file at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string, quota int64) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	return NewSQLiteKV(db, quota), nil
}

// NewSQLiteKV wraps an already migrated database.
func NewSQLiteKV(db *sql.DB, quota int64) *SQLiteKV {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &SQLiteKV{db: db, quota: quota}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

// Set checks the quota and upserts in one transaction.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM kv WHERE key <> ?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("failed to measure kv usage: %w", err)
		}
		if others+entrySize(key, value) > s.quota {
			return ErrQuotaExceeded
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to set kv[%s]: %w", key, err)
		}
		return nil
	})
}

func (s *SQLiteKV) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan kv key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv keys: %w", err)
	}
	return keys, nil
}

func (s *SQLiteKV) Quota() int64 { return s.quota }

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
