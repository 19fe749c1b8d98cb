package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"foody/indexer/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps documents in a single local file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM items WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", id, err)
	}
	return countToExists(id, count)
}

func (s *SQLiteStore) Upsert(ctx context.Context, detail *domain.ItemDetail) error {
	data, err := json.Marshal(detail.ItemBody)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", detail.ID, err)
	}

	query := `
	INSERT INTO items (id, name, data)
	VALUES (?, ?, ?)
	ON CONFLICT (id)
	DO UPDATE SET name = excluded.name, data = excluded.data, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, detail.ID, detail.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save item %s: %w", detail.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Scan(ctx context.Context, fn func(*domain.ItemDetail) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM items`)
	if err != nil {
		return fmt.Errorf("failed to scan items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("failed to read item row: %w", err)
		}

		detail, err := decodeDetail(id, []byte(data))
		if err != nil {
			return err
		}
		if err := fn(detail); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
