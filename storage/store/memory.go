package store

import (
	"context"
	"log"
	"sort"
	"sync"

	"trisense/ledger/types"
)

// MemoryStore is an in-process Store used when no database is configured and
// by the tests. Append-only, same ordering contract as the Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	records []*types.CorrelationRecord
	logger  *log.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *log.Logger) *MemoryStore {
	return &MemoryStore{logger: logger}
}

func (s *MemoryStore) Append(_ context.Context, rec *types.CorrelationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records = append(s.records, &clone)
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]*types.CorrelationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.CorrelationRecord, len(s.records))
	for i, rec := range s.records {
		clone := *rec
		out[i] = &clone
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
