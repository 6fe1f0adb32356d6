package cardlog

import (
	"context"
	"sync"

	"github.com/undownding/city-card/internal/domain/card"
)

const maxMemoryRecords = 512

// MemoryRepository is an in-memory generation log used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []card.GenerationRecord
}

// NewMemoryRepository constructs a log backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Record implements card.GenerationLog.
func (r *MemoryRepository) Record(_ context.Context, rec card.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	if len(r.records) > maxMemoryRecords {
		r.records = r.records[len(r.records)-maxMemoryRecords:]
	}
	return nil
}

// Recent returns the latest records, newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]card.GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]card.GenerationRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var _ card.GenerationLog = (*MemoryRepository)(nil)
