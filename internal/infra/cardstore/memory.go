package cardstore

import (
	"context"
	"sync"

	"github.com/undownding/city-card/internal/domain/card"
)

type storedBlob struct {
	data     []byte
	mimeType string
}

// MemoryStore keeps card blobs in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

// NewMemoryStore constructs the store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]storedBlob)}
}

// Head reports whether a blob exists for the key.
func (s *MemoryStore) Head(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

// Put stores the blob.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[key] = storedBlob{data: copied, mimeType: mimeType}
	return nil
}

// Object returns a stored blob for assertions in tests.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	return blob.data, blob.mimeType, ok
}

var _ card.BlobStore = (*MemoryStore)(nil)
