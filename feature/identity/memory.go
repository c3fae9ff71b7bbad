package identity

import (
	"context"
	"sort"
	"sync"

	"fleet-sync/core/reconcile"
)

// MemoryStore is a non-durable Store for tests and dry runs. Safe for
// concurrent use; ids come back sorted so plans stay deterministic.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]reconcile.Mapping
}

// NewMemoryStore creates an empty in-memory store, optionally pre-seeded.
func NewMemoryStore(seed ...reconcile.Mapping) *MemoryStore {
	s := &MemoryStore{mappings: make(map[string]reconcile.Mapping)}
	for _, m := range seed {
		s.mappings[m.ExternalID] = m
	}
	return s
}

func (s *MemoryStore) Lookup(_ context.Context, externalID string) (*reconcile.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[externalID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) Record(_ context.Context, m reconcile.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.ExternalID] = m
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mappings, externalID)
	return nil
}

func (s *MemoryStore) KnownExternalIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.mappings))
	for id := range s.mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every mapping, ordered by externalId.
func (s *MemoryStore) All(_ context.Context) ([]reconcile.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mappings := make([]reconcile.Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		mappings = append(mappings, m)
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].ExternalID < mappings[j].ExternalID })
	return mappings, nil
}
