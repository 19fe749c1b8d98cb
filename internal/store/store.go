// Package store is the document store of record: one ItemDetail per
// fingerprint, written with whole-document upserts.
package store

import (
	"context"
	"errors"

	"foody/indexer/internal/domain"
)

// ErrIntegrity is returned when more than one document carries the same id.
var ErrIntegrity = errors.New("data integrity violation")

// DocumentStore is implemented by every backend.
type DocumentStore interface {
	// Exists reports whether a document with id is stored.
	Exists(ctx context.Context, id string) (bool, error)
	// Upsert writes detail, replacing any document with the same id.
	Upsert(ctx context.Context, detail *domain.ItemDetail) error
	// Scan calls fn for each document in store order and stops at the first
	// error fn returns. fn must not call back into the store.
	Scan(ctx context.Context, fn func(*domain.ItemDetail) error) error
	Close() error
}
