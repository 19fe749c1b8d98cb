package store

import (
	"context"
	"sync"

	"foody/indexer/internal/domain"
)

// MemoryStore keeps documents in process memory. Used for dry runs.
// Scan visits documents in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]domain.ItemDetail
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]domain.ItemDetail)}
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

func (s *MemoryStore) Upsert(_ context.Context, detail *domain.ItemDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[detail.ID]; !ok {
		s.order = append(s.order, detail.ID)
	}
	s.docs[detail.ID] = cloneDetail(detail)
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, fn func(*domain.ItemDetail) error) error {
	s.mu.RLock()
	snapshot := make([]domain.ItemDetail, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.docs[id])
	}
	s.mu.RUnlock()

	for i := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		detail := cloneDetail(&snapshot[i])
		if err := fn(&detail); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) Close() error { return nil }

func cloneDetail(detail *domain.ItemDetail) domain.ItemDetail {
	c := *detail
	c.Menu = append([]domain.MenuLine(nil), detail.Menu...)
	return c
}
