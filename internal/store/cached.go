package store

import (
	"context"

	"foody/indexer/internal/domain"
	"foody/indexer/internal/state"

	log "github.com/sirupsen/logrus"
)

// CachedStore mirrors the fingerprints of written documents into a seen
// set shared with other processes. The wrapped store stays authoritative:
// a set member the store no longer holds, after a wipe or with a memory
// store, is dropped from the set and reported missing.
type CachedStore struct {
	DocumentStore
	seen state.SeenSet
}

func NewCachedStore(inner DocumentStore, seen state.SeenSet) *CachedStore {
	return &CachedStore{DocumentStore: inner, seen: seen}
}

func (s *CachedStore) Exists(ctx context.Context, id string) (bool, error) {
	cached, err := s.seen.Contains(ctx, id)
	if err != nil {
		log.Warnf("⚠️ Fingerprint cache unavailable: %v", err)
	}

	exists, err := s.DocumentStore.Exists(ctx, id)
	if err != nil {
		return false, err
	}

	switch {
	case exists && !cached:
		s.remember(ctx, id)
	case !exists && cached:
		log.Warnf("⚠️ Fingerprint %s is cached but not stored, forgetting it", id)
		if err := s.seen.Remove(ctx, id); err != nil {
			log.Warnf("⚠️ Failed to forget fingerprint %s: %v", id, err)
		}
	}
	return exists, nil
}

func (s *CachedStore) Upsert(ctx context.Context, detail *domain.ItemDetail) error {
	if err := s.DocumentStore.Upsert(ctx, detail); err != nil {
		return err
	}
	s.remember(ctx, detail.ID)
	return nil
}

func (s *CachedStore) remember(ctx context.Context, id string) {
	if err := s.seen.Add(ctx, id); err != nil {
		log.Warnf("⚠️ Failed to cache fingerprint %s: %v", id, err)
	}
}
