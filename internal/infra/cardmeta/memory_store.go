package cardmeta

import (
	"context"
	"sync"
	"time"

	"github.com/undownding/city-card/internal/domain/card"
)

type storedDescriptor struct {
	payload   card.Descriptor
	expiresAt time.Time
}

// MemoryStore is an in-memory descriptor store for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]storedDescriptor
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]storedDescriptor)}
}

// Save caches the descriptor with optional TTL.
func (s *MemoryStore) Save(_ context.Context, d card.Descriptor, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.entries[d.ObjectKey] = storedDescriptor{payload: d, expiresAt: exp}
	return nil
}

// Get implements card.DescriptorStore.
func (s *MemoryStore) Get(_ context.Context, objectKey string) (card.Descriptor, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[objectKey]
	s.mu.RUnlock()
	if !ok {
		return card.Descriptor{}, false, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		s.mu.Lock()
		delete(s.entries, objectKey)
		s.mu.Unlock()
		return card.Descriptor{}, false, nil
	}
	return entry.payload, true, nil
}

var _ card.DescriptorStore = (*MemoryStore)(nil)
