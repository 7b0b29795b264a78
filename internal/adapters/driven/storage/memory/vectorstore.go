package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory vector store with a linear-scan search.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
	byDoc   map[string]map[string]struct{}
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.VectorRecord),
		byDoc:   make(map[string]map[string]struct{}),
	}
}

// Upsert inserts or replaces records keyed by chunk ID.
func (s *VectorStore) Upsert(_ context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if r.ChunkID == "" || r.DocumentID == "" {
			return fmt.Errorf("%w: record missing chunk or document id", domain.ErrValidation)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if old, ok := s.records[r.ChunkID]; ok && old.DocumentID != r.DocumentID {
			delete(s.byDoc[old.DocumentID], r.ChunkID)
		}
		r.Vector = append([]float32(nil), r.Vector...)
		s.records[r.ChunkID] = r
		ids, ok := s.byDoc[r.DocumentID]
		if !ok {
			ids = make(map[string]struct{})
			s.byDoc[r.DocumentID] = ids
		}
		ids[r.ChunkID] = struct{}{}
	}
	return nil
}

// DeleteByDocument removes every vector for a document.
func (s *VectorStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.byDoc[documentID] {
		delete(s.records, id)
	}
	delete(s.byDoc, documentID)
	return nil
}

// Search ranks every stored vector allowed by filter.
func (s *VectorStore) Search(
	_ context.Context,
	query []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrValidation)
	}

	s.mu.RLock()
	candidates := make([]domain.VectorRecord, 0, len(s.records))
	if filter.IsScoped() {
		for _, docID := range filter.Distinct() {
			for id := range s.byDoc[docID] {
				candidates = append(candidates, s.records[id])
			}
		}
	} else {
		for _, r := range s.records {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	return domain.RankTopK(query, candidates, k), nil
}

// CountByDocument returns the number of vectors for a document.
func (s *VectorStore) CountByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDoc[documentID]), nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
