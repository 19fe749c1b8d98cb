package store

import (
	"context"
	"encoding/json"
	"fmt"

	"foody/indexer/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresStore struct {
	db *pgxpool.Pool
}

// ConnectPostgres opens a pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM items WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", id, err)
	}
	return countToExists(id, count)
}

func (s *PostgresStore) Upsert(ctx context.Context, detail *domain.ItemDetail) error {
	data, err := json.Marshal(detail.ItemBody)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", detail.ID, err)
	}

	query := `
	INSERT INTO items (id, name, data)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = NOW()`
	if _, err := s.db.Exec(ctx, query, detail.ID, detail.Name, data); err != nil {
		return fmt.Errorf("failed to save item %s: %w", detail.ID, err)
	}
	return nil
}

func (s *PostgresStore) Scan(ctx context.Context, fn func(*domain.ItemDetail) error) error {
	rows, err := s.db.Query(ctx, `SELECT id, data FROM items`)
	if err != nil {
		return fmt.Errorf("failed to scan items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("failed to read item row: %w", err)
		}

		detail, err := decodeDetail(id, data)
		if err != nil {
			return err
		}
		if err := fn(detail); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func countToExists(id string, count int) (bool, error) {
	switch {
	case count == 0:
		return false, nil
	case count == 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d documents with id %s", ErrIntegrity, count, id)
	}
}

func decodeDetail(id string, data []byte) (*domain.ItemDetail, error) {
	detail := &domain.ItemDetail{ID: id}
	if err := json.Unmarshal(data, &detail.ItemBody); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	return detail, nil
}
